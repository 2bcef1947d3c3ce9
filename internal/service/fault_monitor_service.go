package service

import (
	"context"
	"sync"

	"paperchat-be/internal/pkg/logger"
	"paperchat-be/pkg/events"
	natsbus "paperchat-be/pkg/nats"
)

const faultMonitorDurable = "paperchat-fault-monitor"

// FaultSubscriber is the part of the NATS subscriber the monitor needs.
type FaultSubscriber interface {
	Subscribe(ctx context.Context, subject string, durableName string, handler natsbus.EventHandler) error
}

// FaultCounts is a snapshot of faulted turns grouped by reason.
type FaultCounts map[string]int

type IFaultMonitorService interface {
	Start(ctx context.Context) error
	Snapshot() FaultCounts
}

// faultMonitorService tallies faulted turns reported on the bus so that
// operators can spot a misconfigured provider across replicas.
type faultMonitorService struct {
	subscriber FaultSubscriber
	logger     logger.ILogger

	mu     sync.Mutex
	counts FaultCounts
}

func NewFaultMonitorService(subscriber FaultSubscriber, logger logger.ILogger) IFaultMonitorService {
	return &faultMonitorService{
		subscriber: subscriber,
		logger:     logger,
		counts:     FaultCounts{},
	}
}

func (s *faultMonitorService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, events.TypeTurnFaulted, faultMonitorDurable, s.handle)
}

func (s *faultMonitorService) handle(ctx context.Context, event events.Event) error {
	reason, _ := event.Payload()["reason"].(string)
	if reason == "" {
		reason = "unknown"
	}

	s.mu.Lock()
	s.counts[reason]++
	total := s.counts[reason]
	s.mu.Unlock()

	s.logger.Warn("FaultMonitor", "Turn faulted", map[string]interface{}{
		"reason":     reason,
		"session_id": event.Payload()["session_id"],
		"total":      total,
	})
	return nil
}

func (s *faultMonitorService) Snapshot() FaultCounts {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(FaultCounts, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}
