package service

import (
	"context"
	"fmt"

	"paperchat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ArchivePublisher forwards turn events to the in-process archive topic.
type ArchivePublisher struct {
	topicName string
	publisher message.Publisher
}

func NewArchivePublisher(topicName string, publisher message.Publisher) *ArchivePublisher {
	return &ArchivePublisher{topicName: topicName, publisher: publisher}
}

func (p *ArchivePublisher) Publish(ctx context.Context, event events.Event) error {
	data, err := events.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal archive message: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	return p.publisher.Publish(p.topicName, msg)
}
