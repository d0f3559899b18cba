package domain

import "context"

// TaskSource reads the candidate tasks of a user. Implementations never
// modify tasks.
type TaskSource interface {
	ListTasks(ctx context.Context, userID string) ([]TaskRef, error)
}

// ActionRepository persists recorded action events for display.
type ActionRepository interface {
	Save(ctx context.Context, event ActionEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]ActionEvent, error)
	CountByAction(ctx context.Context, userID string) (map[Action]int, error)
}
