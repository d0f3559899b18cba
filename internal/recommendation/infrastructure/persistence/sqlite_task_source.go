package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// SQLiteTaskSource implements domain.TaskSource on the local SQLite store.
type SQLiteTaskSource struct {
	dbConn *sql.DB
}

// NewSQLiteTaskSource creates a new SQLite task source.
func NewSQLiteTaskSource(dbConn *sql.DB) *SQLiteTaskSource {
	return &SQLiteTaskSource{dbConn: dbConn}
}

// ListTasks returns every non-archived task of the user.
func (s *SQLiteTaskSource) ListTasks(ctx context.Context, userID string) ([]domain.TaskRef, error) {
	rows, err := s.dbConn.QueryContext(ctx, `
		SELECT id, title, status, priority, due_date, estimated_minutes, tags, updated_at
		FROM tasks
		WHERE user_id = ? AND status != ?
		ORDER BY id`, userID, string(domain.StatusArchived))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.TaskRef
	for rows.Next() {
		var (
			row       taskRow
			due       sql.NullString
			tags      string
			updatedAt string
		)
		if err := rows.Scan(&row.ID, &row.Title, &row.Status, &row.Priority, &due,
			&row.EstimatedMinutes, &tags, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		if row.DueDate, err = fromNullString(due); err != nil {
			return nil, fmt.Errorf("task %s: bad due_date: %w", row.ID, err)
		}
		if row.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("task %s: bad updated_at: %w", row.ID, err)
		}
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &row.Tags); err != nil {
				return nil, fmt.Errorf("task %s: bad tags: %w", row.ID, err)
			}
		}

		task, err := row.toTaskRef()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// SaveTask inserts or replaces a task owned by userID. Completed tasks get a
// completed_at stamp so work history can count them.
func (s *SQLiteTaskSource) SaveTask(ctx context.Context, userID string, task domain.TaskRef) error {
	if err := task.Validate(); err != nil {
		return err
	}

	if task.Status == "" {
		task.Status = domain.StatusPending
	}

	updatedAt := task.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	var completedAt *time.Time
	if task.Status == domain.StatusCompleted {
		completedAt = &updatedAt
	}

	tags := ""
	if len(task.Tags) > 0 {
		raw, err := json.Marshal(task.Tags)
		if err != nil {
			return err
		}
		tags = string(raw)
	}

	_, err := s.dbConn.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, status, priority, due_date, estimated_minutes, tags, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			priority = excluded.priority,
			due_date = excluded.due_date,
			estimated_minutes = excluded.estimated_minutes,
			tags = excluded.tags,
			completed_at = COALESCE(tasks.completed_at, excluded.completed_at),
			updated_at = excluded.updated_at`,
		task.ID, userID, task.Title, string(task.Status), task.Priority.String(),
		toNullString(task.DueDate), task.EstimatedMinutes(), tags,
		toNullString(completedAt), formatTime(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}
