package persistence

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain/value_objects"
)

// taskRow is the column set shared by the SQLite and PostgreSQL task tables.
type taskRow struct {
	ID               string
	Title            string
	Status           string
	Priority         string
	DueDate          *time.Time
	EstimatedMinutes int
	Tags             []string
	UpdatedAt        time.Time
}

// toTaskRef converts a row into the read-only projection the engine scores.
// Out-of-range estimates are dropped rather than failing the whole listing.
func (r taskRow) toTaskRef() (domain.TaskRef, error) {
	priority, err := value_objects.ParsePriority(r.Priority)
	if err != nil {
		return domain.TaskRef{}, fmt.Errorf("task %s: %w", r.ID, err)
	}

	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return domain.TaskRef{}, fmt.Errorf("task %s: %w", r.ID, err)
	}

	estimate, err := value_objects.DurationFromMinutes(r.EstimatedMinutes)
	if err != nil {
		estimate = value_objects.Zero()
	}

	var due *time.Time
	if r.DueDate != nil {
		d := r.DueDate.UTC()
		due = &d
	}

	return domain.TaskRef{
		ID:                r.ID,
		Title:             r.Title,
		Status:            status,
		Priority:          priority,
		DueDate:           due,
		EstimatedDuration: estimate,
		Tags:              r.Tags,
		UpdatedAt:         r.UpdatedAt.UTC(),
	}, nil
}

// formatTime renders t the way every SQLite column stores timestamps.
// Second precision in UTC keeps the text lexically ordered.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func toNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func fromNullString(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
