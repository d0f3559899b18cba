package eventbus

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/nextup/pkg/observability"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}

// NoopPublisher is a no-op publisher for testing/development.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs the message but doesn't actually publish.
func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.DebugContext(ctx, "noop publish",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}

// InstrumentedPublisher counts published events per routing key.
type InstrumentedPublisher struct {
	next    Publisher
	metrics observability.Metrics
}

// NewInstrumentedPublisher wraps next with metrics.
func NewInstrumentedPublisher(next Publisher, metrics observability.Metrics) *InstrumentedPublisher {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &InstrumentedPublisher{next: next, metrics: metrics}
}

// Publish implements Publisher.
func (p *InstrumentedPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	err := p.next.Publish(ctx, routingKey, payload)
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.Counter(observability.MetricEventsPublished, 1,
		observability.T("routing_key", routingKey),
		observability.T("status", status),
	)
	return err
}

// Close implements Publisher.
func (p *InstrumentedPublisher) Close() error {
	return p.next.Close()
}
