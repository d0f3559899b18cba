package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/nextup/pkg/observability"
)

// DefaultConsumerQueueName is the durable queue recorded actions are read from.
const DefaultConsumerQueueName = "nextup.recommendation.actions"

var errMalformedEvent = errors.New("malformed event body")

// Settlement is how a delivery is answered to the broker.
type Settlement string

const (
	// SettleAck removes the delivery from the queue.
	SettleAck Settlement = "acked"
	// SettleRequeue returns the delivery for another attempt.
	SettleRequeue Settlement = "requeued"
	// SettleReject drops the delivery, or dead-letters it when the queue
	// has a dead-letter exchange policy.
	SettleReject Settlement = "rejected"
)

// SettlementFor maps a dispatch result to a settlement. Only failures that
// a later attempt could fix are requeued.
func SettlementFor(err error) Settlement {
	switch {
	case err == nil:
		return SettleAck
	case IsPermanent(err):
		return SettleReject
	default:
		return SettleRequeue
	}
}

// RabbitMQConsumer reads recommendation action events from a durable queue
// and dispatches them to registered consumers one at a time.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	exchange string
	registry *ConsumerRegistry
	metrics  observability.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	closed  chan struct{}
}

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	Metrics   observability.Metrics
	Logger    *slog.Logger
}

// NewRabbitMQConsumer dials the broker and declares the exchange and queue.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	closeAll := func() {
		_ = ch.Close()
		_ = conn.Close()
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected",
		"queue", cfg.QueueName,
		"exchange", cfg.Exchange,
	)

	c := newRabbitMQConsumer(registry, cfg.Metrics, cfg.Logger)
	c.conn = conn
	c.channel = ch
	c.queue = cfg.QueueName
	c.exchange = cfg.Exchange
	return c, nil
}

func newRabbitMQConsumer(registry *ConsumerRegistry, metrics observability.Metrics, logger *slog.Logger) *RabbitMQConsumer {
	return &RabbitMQConsumer{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
		closed:   make(chan struct{}),
	}
}

// RegisterConsumer registers consumer and binds its topic patterns to the queue.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	for _, pattern := range consumer.EventTypes() {
		if err := c.bind(pattern); err != nil {
			c.logger.Error("failed to bind queue for event type",
				"event_type", pattern,
				"error", err,
			)
		}
	}
}

func (c *RabbitMQConsumer) bind(pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.channel.QueueBind(c.queue, pattern, c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	c.logger.Debug("bound queue to routing key",
		"queue", c.queue,
		"routing_key", pattern,
	)
	return nil
}

// Start consumes until ctx ends or Close is called. Deliveries are
// processed one at a time and settled according to SettlementFor.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	c.logger.Info("started consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer context cancelled, stopping")
			return ctx.Err()
		case <-c.closed:
			c.logger.Info("consumer close requested, stopping")
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed unexpectedly")
			}
			c.deliver(ctx, msg)
		}
	}
}

// deliver dispatches one delivery and settles it with the broker.
func (c *RabbitMQConsumer) deliver(ctx context.Context, msg amqp.Delivery) Settlement {
	err := c.dispatch(ctx, msg)
	settlement := SettlementFor(err)

	var settleErr error
	switch settlement {
	case SettleAck:
		settleErr = msg.Ack(false)
	case SettleRequeue:
		c.logger.Warn("event dispatch failed, requeueing",
			"routing_key", msg.RoutingKey,
			"redelivered", msg.Redelivered,
			"error", err,
		)
		settleErr = msg.Nack(false, true)
	case SettleReject:
		c.logger.Error("event rejected",
			"routing_key", msg.RoutingKey,
			"error", err,
		)
		c.metrics.Counter(observability.MetricEventsRejected, 1, observability.T("routing_key", msg.RoutingKey))
		settleErr = msg.Nack(false, false)
	}
	if settleErr != nil {
		c.logger.Error("failed to settle delivery",
			"settlement", string(settlement),
			"error", settleErr,
		)
	}
	c.metrics.Counter(observability.MetricEventsConsumed, 1, observability.T("settlement", string(settlement)))
	return settlement
}

func (c *RabbitMQConsumer) dispatch(ctx context.Context, msg amqp.Delivery) error {
	if !json.Valid(msg.Body) {
		return Permanent(errMalformedEvent)
	}

	occurredAt := msg.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	event := NewConsumedEvent(msg.RoutingKey, msg.Body, occurredAt)
	if event.EventID == "" {
		event.EventID = msg.MessageId
	}

	start := time.Now()
	if err := c.registry.Dispatch(ctx, event); err != nil {
		return err
	}
	c.logger.Debug("event processed",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		observability.DurationKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Close stops Start and closes the channel and connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}
	c.running = false

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return err
		}
	}
	c.logger.Info("RabbitMQ consumer closed")
	return nil
}
