package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "chat.turn.appended").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Publisher delivers events to a bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Multi fans one event out to several publishers. Every publisher is tried;
// the errors are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Marshal encodes the event as a flat JSON object: the payload fields plus
// "type" and "occurred_at".
func Marshal(event Event) ([]byte, error) {
	envelope := make(map[string]interface{}, len(event.Payload())+2)
	for k, v := range event.Payload() {
		envelope[k] = v
	}
	envelope["type"] = event.EventType()
	envelope["occurred_at"] = event.Timestamp().UTC().Format(time.RFC3339Nano)
	return json.Marshal(envelope)
}

// Unmarshal is the inverse of Marshal. fallbackType is used when the envelope
// carries no "type" field.
func Unmarshal(data []byte, fallbackType string) (BaseEvent, error) {
	var envelope map[string]interface{}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return BaseEvent{}, err
	}

	event := BaseEvent{Type: fallbackType, Data: envelope, OccurredAt: time.Now().UTC()}
	if t, ok := envelope["type"].(string); ok && t != "" {
		event.Type = t
	}
	if s, ok := envelope["occurred_at"].(string); ok {
		if at, err := time.Parse(time.RFC3339Nano, s); err == nil {
			event.OccurredAt = at
		}
	}
	delete(envelope, "type")
	delete(envelope, "occurred_at")
	return event, nil
}
