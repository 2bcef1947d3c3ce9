package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"paperchat-be/internal/dto"
	"paperchat-be/internal/entity"
	"paperchat-be/internal/pkg/logger"
	"paperchat-be/internal/repository/unitofwork"
	"paperchat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IArchiveConsumerService interface {
	Consume(ctx context.Context) error
}

type archiveConsumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewArchiveConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	logger logger.ILogger,
) IArchiveConsumerService {
	return &archiveConsumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     logger,
	}
}

func (cs *archiveConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *archiveConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.TurnArchiveMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ArchiveConsumer", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // poison message, retrying cannot help
		return
	}

	turn, err := toArchivedTurn(payload)
	if err != nil {
		cs.logger.Error("ArchiveConsumer", "Invalid archive message", map[string]interface{}{
			"error":   err.Error(),
			"turn_id": payload.TurnId,
		})
		msg.Ack()
		return
	}

	err = unitofwork.Run(ctx, cs.uowFactory, func(uow unitofwork.UnitOfWork) error {
		return uow.ChatTurnRepository().Create(ctx, turn)
	})
	if err != nil {
		cs.logger.Error("ArchiveConsumer", "Failed to archive turn", map[string]interface{}{
			"error":   err.Error(),
			"turn_id": payload.TurnId,
		})
		msg.Nack()
		return
	}

	cs.logger.Info("ArchiveConsumer", "Turn archived", map[string]interface{}{
		"turn_id":    payload.TurnId,
		"session_id": payload.SessionId,
		"kind":       turn.Kind,
		"cited":      len(turn.CitedIds),
	})
	msg.Ack()
}

func toArchivedTurn(m dto.TurnArchiveMessage) (*entity.ChatTurn, error) {
	var kind string
	switch m.Type {
	case events.TypeTurnAppended:
		kind = "assistant"
	case events.TypeTurnFaulted:
		kind = "faulted"
	default:
		return nil, fmt.Errorf("unknown event type %q", m.Type)
	}

	turnId, err := uuid.Parse(m.TurnId)
	if err != nil {
		return nil, fmt.Errorf("turn id: %w", err)
	}
	sessionId, err := uuid.Parse(m.SessionId)
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	createdAt := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339Nano, m.OccurredAt); err == nil {
		createdAt = t
	}

	cited := m.CitedIds
	if cited == nil {
		cited = []int{}
	}

	return &entity.ChatTurn{
		Id:         turnId,
		SessionId:  sessionId,
		UserId:     m.UserId,
		DocumentId: m.DocumentId,
		Kind:       kind,
		Query:      m.Query,
		Content:    m.Content,
		RawContent: m.RawContent,
		Reason:     m.Reason,
		CitedIds:   cited,
		CreatedAt:  createdAt,
	}, nil
}
