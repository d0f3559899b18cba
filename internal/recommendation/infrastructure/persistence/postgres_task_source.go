package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// PostgresTaskSource implements domain.TaskSource on a shared PostgreSQL
// task table.
type PostgresTaskSource struct {
	pool *pgxpool.Pool
}

// NewPostgresTaskSource creates a new PostgreSQL task source.
func NewPostgresTaskSource(pool *pgxpool.Pool) *PostgresTaskSource {
	return &PostgresTaskSource{pool: pool}
}

// ListTasks returns every non-archived task of the user.
func (s *PostgresTaskSource) ListTasks(ctx context.Context, userID string) ([]domain.TaskRef, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, status, priority, due_date, estimated_minutes, tags, updated_at
		FROM tasks
		WHERE user_id = $1 AND status <> $2
		ORDER BY id`, userID, string(domain.StatusArchived))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (taskRow, error) {
		var r taskRow
		err := row.Scan(&r.ID, &r.Title, &r.Status, &r.Priority, &r.DueDate,
			&r.EstimatedMinutes, &r.Tags, &r.UpdatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan tasks: %w", err)
	}

	tasks := make([]domain.TaskRef, 0, len(records))
	for _, r := range records {
		task, err := r.toTaskRef()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// SaveTask upserts a task row owned by userID.
func (s *PostgresTaskSource) SaveTask(ctx context.Context, userID string, task domain.TaskRef) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, user_id, title, status, priority, due_date, estimated_minutes, tags, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			CASE WHEN $4 = 'completed' THEN NOW() END, NOW())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			due_date = EXCLUDED.due_date,
			estimated_minutes = EXCLUDED.estimated_minutes,
			tags = EXCLUDED.tags,
			completed_at = COALESCE(tasks.completed_at, EXCLUDED.completed_at),
			updated_at = NOW()`,
		task.ID, userID, task.Title, string(task.Status), task.Priority.String(),
		task.DueDate, task.EstimatedMinutes(), tags,
	)
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}
