package domain

import (
	"encoding/json"
	"testing"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain/value_objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRef_Validate(t *testing.T) {
	assert.NoError(t, TaskRef{ID: "t1", Priority: value_objects.PriorityHigh}.Validate())
	assert.ErrorIs(t, TaskRef{ID: "  "}.Validate(), ErrInvalidTask)
	assert.ErrorIs(t, TaskRef{ID: "t1", Priority: value_objects.Priority(42)}.Validate(), ErrInvalidTask)
	assert.ErrorIs(t, TaskRef{ID: "t1", Priority: value_objects.PriorityHigh, Status: "done"}.Validate(), ErrInvalidTask)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "", want: StatusPending},
		{in: "pending", want: StatusPending},
		{in: " In_Progress ", want: StatusInProgress},
		{in: "COMPLETED", want: StatusCompleted},
		{in: "archived", want: StatusArchived},
		{in: "done", wantErr: true},
		{in: "blocked", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTask)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaskRef_IsOpen(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, true},
		{StatusInProgress, true},
		{StatusCompleted, false},
		{StatusArchived, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TaskRef{ID: "x", Status: tt.status}.IsOpen(), tt.status)
	}
}

func TestTaskRef_JSON(t *testing.T) {
	task := TaskRef{
		ID:                "t1",
		Title:             "Write report",
		Status:            StatusPending,
		Priority:          value_objects.PriorityUrgent,
		EstimatedDuration: value_objects.MustDurationFromMinutes(25),
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"priority":"urgent"`)
	assert.Contains(t, string(data), `"estimated_minutes":25`)

	var decoded TaskRef
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, value_objects.PriorityUrgent, decoded.Priority)
	assert.Equal(t, 25, decoded.EstimatedMinutes())
	assert.True(t, decoded.HasEstimate())
}
