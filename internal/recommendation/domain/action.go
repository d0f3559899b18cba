package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action is a user reaction to a recommendation.
type Action string

const (
	ActionAccepted         Action = "accepted"
	ActionSkipped          Action = "skipped"
	ActionFeedbackPositive Action = "feedback_positive"
	ActionFeedbackNegative Action = "feedback_negative"
)

// ParseAction validates a raw action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAccepted, ActionSkipped, ActionFeedbackPositive, ActionFeedbackNegative:
		return a, nil
	default:
		return "", ErrInvalidAction
	}
}

// ActionEventPrefix prefixes the routing key of every action event.
const ActionEventPrefix = "recommendation.action."

// ActionEvent is emitted outward when a user reacts to a recommendation.
type ActionEvent struct {
	ID        uuid.UUID `json:"id"`
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewActionEvent creates an event stamped with the given time.
func NewActionEvent(userID, taskID string, action Action, at time.Time) ActionEvent {
	return ActionEvent{
		ID:        uuid.New(),
		TaskID:    taskID,
		UserID:    userID,
		Action:    action,
		Timestamp: at.UTC(),
	}
}

// RoutingKey returns the bus routing key for the event.
func (e ActionEvent) RoutingKey() string {
	return ActionEventPrefix + string(e.Action)
}
