package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// DefaultActionLimit bounds ListByUser when the caller passes no limit.
const DefaultActionLimit = 20

// SQLiteFeedbackRepository implements domain.ActionRepository using SQLite.
type SQLiteFeedbackRepository struct {
	dbConn *sql.DB
}

// NewSQLiteFeedbackRepository creates a new SQLite feedback repository.
func NewSQLiteFeedbackRepository(dbConn *sql.DB) *SQLiteFeedbackRepository {
	return &SQLiteFeedbackRepository{dbConn: dbConn}
}

// Save stores an action event. Saving the same event twice is a no-op, which
// keeps redelivered bus messages harmless.
func (r *SQLiteFeedbackRepository) Save(ctx context.Context, event domain.ActionEvent) error {
	_, err := r.dbConn.ExecContext(ctx, `
		INSERT INTO recommendation_actions (id, user_id, task_id, action, occurred_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		event.ID.String(), event.UserID, event.TaskID, string(event.Action), formatTime(event.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to save action %s: %w", event.ID, err)
	}
	return nil
}

// ListByUser returns the most recent actions of a user, newest first.
func (r *SQLiteFeedbackRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ActionEvent, error) {
	if limit <= 0 {
		limit = DefaultActionLimit
	}

	rows, err := r.dbConn.QueryContext(ctx, `
		SELECT id, task_id, action, occurred_at
		FROM recommendation_actions
		WHERE user_id = ?
		ORDER BY occurred_at DESC, rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var events []domain.ActionEvent
	for rows.Next() {
		var id, taskID, action, occurredAt string
		if err := rows.Scan(&id, &taskID, &action, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}

		eventID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("action %s: bad id: %w", id, err)
		}
		parsed, err := domain.ParseAction(action)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", id, err)
		}
		ts, err := parseTime(occurredAt)
		if err != nil {
			return nil, fmt.Errorf("action %s: bad occurred_at: %w", id, err)
		}

		events = append(events, domain.ActionEvent{
			ID:        eventID,
			TaskID:    taskID,
			UserID:    userID,
			Action:    parsed,
			Timestamp: ts,
		})
	}
	return events, rows.Err()
}

// CountByAction tallies a user's actions by kind.
func (r *SQLiteFeedbackRepository) CountByAction(ctx context.Context, userID string) (map[domain.Action]int, error) {
	rows, err := r.dbConn.QueryContext(ctx, `
		SELECT action, COUNT(*) FROM recommendation_actions
		WHERE user_id = ?
		GROUP BY action`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Action]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("failed to scan action count: %w", err)
		}
		counts[domain.Action(action)] = n
	}
	return counts, rows.Err()
}
