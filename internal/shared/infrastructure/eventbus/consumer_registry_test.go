package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/nextup/internal/shared/infrastructure/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"recommendation.action.skipped", "recommendation.action.skipped", true},
		{"recommendation.action.skipped", "recommendation.action.accepted", false},
		{"recommendation.action.*", "recommendation.action.accepted", true},
		{"recommendation.action.*", "recommendation.action", false},
		{"recommendation.action.*", "recommendation.action.a.b", false},
		{"recommendation.#", "recommendation", true},
		{"recommendation.#", "recommendation.action.accepted", true},
		{"#", "anything.at.all", true},
		{"*.action.*", "recommendation.action.skipped", true},
		{"#.skipped", "recommendation.action.skipped", true},
		{"#.skipped", "recommendation.action.accepted", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, eventbus.MatchTopic(tt.pattern, tt.key), "%s vs %s", tt.pattern, tt.key)
	}
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	wildcard := &mockConsumer{eventTypes: []string{"recommendation.action.*"}}
	exact := &mockConsumer{eventTypes: []string{"recommendation.action.skipped"}}
	registry.Register(wildcard)
	registry.Register(exact)

	assert.Equal(t, 2, registry.ConsumerCount())
	assert.ElementsMatch(t, []string{"recommendation.action.*", "recommendation.action.skipped"}, registry.GetAllEventTypes())

	ctx := context.Background()
	require.NoError(t, registry.Dispatch(ctx, eventbus.NewConsumedEvent("recommendation.action.skipped", []byte(`{}`), time.Now())))
	require.NoError(t, registry.Dispatch(ctx, eventbus.NewConsumedEvent("recommendation.action.accepted", []byte(`{}`), time.Now())))
	require.NoError(t, registry.Dispatch(ctx, eventbus.NewConsumedEvent("other.event", []byte(`{}`), time.Now())))

	assert.Len(t, wildcard.events, 2)
	assert.Len(t, exact.events, 1)
}

func TestConsumerRegistry_DispatchContinuesAfterFailure(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	failing := &mockConsumer{eventTypes: []string{"a.b"}, err: errors.New("boom")}
	healthy := &mockConsumer{eventTypes: []string{"a.*"}}
	registry.Register(failing)
	registry.Register(healthy)

	err := registry.Dispatch(context.Background(), eventbus.NewConsumedEvent("a.b", []byte(`{}`), time.Now()))
	assert.ErrorContains(t, err, "boom")
	assert.Len(t, healthy.events, 1)
}
