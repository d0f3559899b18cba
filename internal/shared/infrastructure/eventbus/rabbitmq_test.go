package eventbus_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/nextup/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRabbitMQ_PublishConsume(t *testing.T) {
	url := os.Getenv("TEST_RABBITMQ_URL")
	if url == "" {
		t.Skip("TEST_RABBITMQ_URL not set, skipping integration test")
	}

	exchange := "nextup-test-" + uuid.NewString()
	publisher, err := eventbus.NewRabbitMQPublisher(url, exchange, nil)
	require.NoError(t, err)
	defer publisher.Close()

	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:       url,
		QueueName: exchange,
		Exchange:  exchange,
	}, eventbus.NewConsumerRegistry(nil))
	require.NoError(t, err)

	received := make(chan *eventbus.ConsumedEvent, 1)
	consumer.RegisterConsumer(&funcConsumer{
		types: []string{"recommendation.action.*"},
		fn: func(e *eventbus.ConsumedEvent) {
			received <- e
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Start(ctx) }()

	require.NoError(t, publisher.Publish(ctx, "recommendation.action.accepted", []byte(`{"id":"evt-9"}`)))

	select {
	case e := <-received:
		assert.Equal(t, "evt-9", e.EventID)
	case <-time.After(5 * time.Second):
		t.Fatal("event not consumed")
	}
}

type funcConsumer struct {
	types []string
	fn    func(*eventbus.ConsumedEvent)
}

func (f *funcConsumer) EventTypes() []string { return f.types }

func (f *funcConsumer) Handle(_ context.Context, e *eventbus.ConsumedEvent) error {
	f.fn(e)
	return nil
}
