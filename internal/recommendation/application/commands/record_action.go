package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

var (
	ErrMissingTaskID  = errors.New("task id is required")
	ErrUnknownVariant = errors.New("unknown cache variant")
)

// ActionRecorder applies an action to the running engine.
type ActionRecorder interface {
	RecordAction(ctx context.Context, event domain.ActionEvent)
}

// EventPublisher publishes serialized events by routing key.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
}

// RecordActionCommand contains a user's reaction to a recommendation.
type RecordActionCommand struct {
	UserID string
	TaskID string
	Action string
}

// RecordActionHandler handles the RecordActionCommand.
type RecordActionHandler struct {
	recorder  ActionRecorder
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewRecordActionHandler creates a new RecordActionHandler. A nil publisher
// records the action on the engine only.
func NewRecordActionHandler(recorder ActionRecorder, publisher EventPublisher, logger *slog.Logger) *RecordActionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordActionHandler{
		recorder:  recorder,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle validates the action, applies it to the engine and emits it.
func (h *RecordActionHandler) Handle(ctx context.Context, cmd RecordActionCommand) (domain.ActionEvent, error) {
	if strings.TrimSpace(cmd.TaskID) == "" {
		return domain.ActionEvent{}, ErrMissingTaskID
	}
	action, err := domain.ParseAction(cmd.Action)
	if err != nil {
		return domain.ActionEvent{}, err
	}

	event := domain.NewActionEvent(cmd.UserID, cmd.TaskID, action, h.now())
	h.recorder.RecordAction(ctx, event)

	if h.publisher == nil {
		return event, nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return event, fmt.Errorf("marshal action event: %w", err)
	}
	if err := h.publisher.Publish(ctx, event.RoutingKey(), payload); err != nil {
		return event, fmt.Errorf("publish action event: %w", err)
	}

	h.logger.DebugContext(ctx, "recommendation action recorded",
		"user_id", event.UserID,
		"task_id", event.TaskID,
		"action", event.Action,
	)
	return event, nil
}
