package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/recommendation/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	events []domain.ActionEvent
}

func (r *fakeRecorder) RecordAction(_ context.Context, event domain.ActionEvent) {
	r.events = append(r.events, event)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

func TestRecordActionHandler_Handle(t *testing.T) {
	recorder := &fakeRecorder{}
	publisher := new(mockPublisher)
	var payload []byte
	publisher.On("Publish", mock.Anything, "recommendation.action.skipped", mock.AnythingOfType("[]uint8")).
		Run(func(args mock.Arguments) { payload = args.Get(2).([]byte) }).
		Return(nil).Once()
	handler := NewRecordActionHandler(recorder, publisher, nil)

	event, err := handler.Handle(context.Background(), RecordActionCommand{
		UserID: "user-1",
		TaskID: "task-9",
		Action: "skipped",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ActionSkipped, event.Action)
	require.Len(t, recorder.events, 1)
	assert.Equal(t, event.ID, recorder.events[0].ID)

	publisher.AssertExpectations(t)

	var published domain.ActionEvent
	require.NoError(t, json.Unmarshal(payload, &published))
	assert.Equal(t, "task-9", published.TaskID)
	assert.Equal(t, "user-1", published.UserID)
}

func TestRecordActionHandler_Validation(t *testing.T) {
	recorder := &fakeRecorder{}
	handler := NewRecordActionHandler(recorder, nil, nil)

	_, err := handler.Handle(context.Background(), RecordActionCommand{UserID: "u", Action: "accepted"})
	assert.ErrorIs(t, err, ErrMissingTaskID)

	_, err = handler.Handle(context.Background(), RecordActionCommand{UserID: "u", TaskID: "t", Action: "maybe"})
	assert.ErrorIs(t, err, domain.ErrInvalidAction)

	assert.Empty(t, recorder.events)
}

func TestRecordActionHandler_PublishFailure(t *testing.T) {
	recorder := &fakeRecorder{}
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, "recommendation.action.accepted", mock.Anything).
		Return(errors.New("broker down"))
	handler := NewRecordActionHandler(recorder, publisher, nil)

	_, err := handler.Handle(context.Background(), RecordActionCommand{UserID: "u", TaskID: "t", Action: "accepted"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, recorder.events, 1, "engine state is updated before publishing")
}

type fakeInvalidator struct {
	userID   string
	variants []cache.Variant
	calls    int
}

func (f *fakeInvalidator) Invalidate(_ context.Context, userID string, variants ...cache.Variant) {
	f.calls++
	f.userID = userID
	f.variants = variants
}

func TestInvalidateCacheHandler_Handle(t *testing.T) {
	inv := &fakeInvalidator{}
	handler := NewInvalidateCacheHandler(inv)

	require.NoError(t, handler.Handle(context.Background(), InvalidateCacheCommand{UserID: "u"}))
	assert.Equal(t, "u", inv.userID)
	assert.Empty(t, inv.variants)

	require.NoError(t, handler.Handle(context.Background(), InvalidateCacheCommand{UserID: "u", Variants: []string{"basic"}}))
	assert.Equal(t, []cache.Variant{cache.VariantBasic}, inv.variants)

	err := handler.Handle(context.Background(), InvalidateCacheCommand{UserID: "u", Variants: []string{"deluxe"}})
	assert.ErrorIs(t, err, ErrUnknownVariant)
	assert.Equal(t, 2, inv.calls)
}
