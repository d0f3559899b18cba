package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/nextup/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/nextup/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{eventTypes: []string{"recommendation.action.*"}}
	bus.RegisterConsumer(consumer)

	payload := []byte(`{"id":"evt-1","task_id":"t1","action":"accepted"}`)
	require.NoError(t, bus.Publish(context.Background(), "recommendation.action.accepted", payload))

	require.Len(t, consumer.events, 1)
	event := consumer.events[0]
	assert.Equal(t, "evt-1", event.EventID)
	assert.Equal(t, "recommendation.action.accepted", event.RoutingKey)
	assert.False(t, event.OccurredAt.IsZero())

	var body struct {
		TaskID string `json:"task_id"`
	}
	require.NoError(t, event.Decode(&body))
	assert.Equal(t, "t1", body.TaskID)
}

func TestInProcessEventBus_ConsumerErrorIsSwallowed(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	bus.RegisterConsumer(&mockConsumer{eventTypes: []string{"x.y"}, err: errors.New("fail")})

	assert.NoError(t, bus.Publish(context.Background(), "x.y", []byte(`{}`)))
	assert.NoError(t, bus.Close())
}

func TestInstrumentedPublisher(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	pub := eventbus.NewInstrumentedPublisher(eventbus.NewNoopPublisher(nil), metrics)

	require.NoError(t, pub.Publish(context.Background(), "recommendation.action.skipped", []byte(`{}`)))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEventsPublished,
		observability.T("routing_key", "recommendation.action.skipped"),
		observability.T("status", "ok"),
	))
	assert.NoError(t, pub.Close())
}

func TestNewConsumedEvent_WithoutID(t *testing.T) {
	event := eventbus.NewConsumedEvent("k", []byte(`[1,2]`), time.Time{})
	assert.Empty(t, event.EventID)
	assert.JSONEq(t, `[1,2]`, string(event.Payload))
}
