package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for _, raw := range []string{"accepted", "skipped", "feedback_positive", "feedback_negative"} {
		a, err := ParseAction(raw)
		require.NoError(t, err)
		assert.Equal(t, Action(raw), a)
	}

	_, err := ParseAction("snoozed")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestNewActionEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	e := NewActionEvent("user-1", "task-1", ActionSkipped, at)

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, "recommendation.action.skipped", e.RoutingKey())
	assert.Equal(t, time.UTC, e.Timestamp.Location())
	assert.True(t, e.Timestamp.Equal(at))
}

func TestComputationError(t *testing.T) {
	inner := assert.AnError
	err := &ComputationError{TaskID: "t9", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "t9")
}
