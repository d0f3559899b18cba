package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain/value_objects"
)

// Status represents the task lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

// IsValid reports whether s is a known status. The empty status reads as
// pending.
func (s Status) IsValid() bool {
	switch s {
	case "", StatusPending, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// ParseStatus normalizes a stored status. Empty input yields StatusPending.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if status == "" {
		return StatusPending, nil
	}
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTask, s)
	}
	return status, nil
}

// TaskRef is a read-only projection of a task owned by an external store.
type TaskRef struct {
	ID                string                 `json:"id" yaml:"id"`
	Title             string                 `json:"title" yaml:"title"`
	Status            Status                 `json:"status" yaml:"status"`
	Priority          value_objects.Priority `json:"priority" yaml:"priority"`
	DueDate           *time.Time             `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	EstimatedDuration value_objects.Duration `json:"estimated_minutes" yaml:"-"`
	Tags              []string               `json:"tags,omitempty" yaml:"tags,omitempty"`
	UpdatedAt         time.Time              `json:"updated_at" yaml:"updated_at"`
}

// Validate checks the fields every consumer relies on.
func (t TaskRef) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrMissingTaskID
	}
	if !t.Priority.IsValid() {
		return ErrInvalidTask
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, t.Status)
	}
	return nil
}

// IsOpen reports whether the task can still be worked on.
func (t TaskRef) IsOpen() bool {
	return t.Status != StatusCompleted && t.Status != StatusArchived
}

// HasEstimate reports whether a duration estimate is present.
func (t TaskRef) HasEstimate() bool {
	return !t.EstimatedDuration.IsZero()
}

// EstimatedMinutes returns the estimate in minutes, 0 when unset.
func (t TaskRef) EstimatedMinutes() int {
	return t.EstimatedDuration.Minutes()
}
