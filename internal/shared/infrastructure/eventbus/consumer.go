package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrPermanent marks a handler failure that redelivery cannot fix, such as
// an undecodable payload or an unknown action.
var ErrPermanent = errors.New("permanent event failure")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

func (e *permanentError) Is(target error) bool { return target == ErrPermanent }

// Permanent wraps err so brokers drop or dead-letter the event instead of
// redelivering it. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err is permanent. A joined error is permanent
// only when every part is.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts := joined.Unwrap()
		for _, part := range parts {
			if !IsPermanent(part) {
				return false
			}
		}
		return len(parts) > 0
	}
	return errors.Is(err, ErrPermanent)
}

// EventConsumer handles specific event types.
type EventConsumer interface {
	// EventTypes returns the routing keys or topic patterns this consumer
	// handles, e.g. ["recommendation.action.*"].
	EventTypes() []string

	// Handle processes the event.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent represents an event received from the message bus.
type ConsumedEvent struct {
	EventID    string          `json:"event_id"`
	RoutingKey string          `json:"routing_key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (e *ConsumedEvent) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewConsumedEvent wraps a published payload. The event id is taken from a
// top-level "id" field when the payload has one.
func NewConsumedEvent(routingKey string, payload []byte, occurredAt time.Time) *ConsumedEvent {
	var head struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(payload, &head)

	return &ConsumedEvent{
		EventID:    head.ID,
		RoutingKey: routingKey,
		OccurredAt: occurredAt,
		Payload:    json.RawMessage(payload),
	}
}

// Consumer defines the interface for consuming events from a message broker.
type Consumer interface {
	// Start begins consuming messages. This is a blocking call.
	Start(ctx context.Context) error

	// RegisterConsumer registers an event consumer.
	RegisterConsumer(consumer EventConsumer)

	// Close closes the consumer connection.
	Close() error
}
