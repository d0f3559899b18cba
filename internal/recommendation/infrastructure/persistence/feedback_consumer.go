package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/shared/infrastructure/eventbus"
)

// FeedbackConsumer stores action events received from the event bus.
type FeedbackConsumer struct {
	repo   domain.ActionRepository
	logger *slog.Logger
}

// NewFeedbackConsumer creates a consumer writing into repo.
func NewFeedbackConsumer(repo domain.ActionRepository, logger *slog.Logger) *FeedbackConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackConsumer{repo: repo, logger: logger}
}

// EventTypes implements eventbus.EventConsumer.
func (c *FeedbackConsumer) EventTypes() []string {
	return []string{domain.ActionEventPrefix + "*"}
}

// Handle implements eventbus.EventConsumer. Undecodable payloads and
// unknown actions are permanent failures; store errors are not.
func (c *FeedbackConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var action domain.ActionEvent
	if err := event.Decode(&action); err != nil {
		return eventbus.Permanent(fmt.Errorf("failed to decode action event %s: %w", event.EventID, err))
	}
	if _, err := domain.ParseAction(string(action.Action)); err != nil {
		return eventbus.Permanent(fmt.Errorf("action event %s: %w", event.EventID, err))
	}
	if action.Timestamp.IsZero() {
		action.Timestamp = event.OccurredAt
	}

	if err := c.repo.Save(ctx, action); err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "action recorded",
		"event_id", action.ID.String(),
		"user_id", action.UserID,
		"task_id", action.TaskID,
		"action", string(action.Action),
	)
	return nil
}

var _ eventbus.EventConsumer = (*FeedbackConsumer)(nil)
