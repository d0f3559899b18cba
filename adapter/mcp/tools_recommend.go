package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/nextup/adapter/cli"
	"github.com/felixgeelhaar/nextup/internal/recommendation/application/commands"
	"github.com/felixgeelhaar/nextup/internal/recommendation/application/queries"
	"github.com/felixgeelhaar/nextup/pkg/observability"
)

type userInput struct {
	UserID string `json:"user_id,omitempty"`
}

type feedbackInput struct {
	UserID string `json:"user_id,omitempty"`
	TaskID string `json:"task_id" jsonschema:"required"`
	// Action is accepted, skipped, feedback_positive or feedback_negative.
	Action string `json:"action" jsonschema:"required"`
}

type statsInput struct {
	UserID string `json:"user_id,omitempty"`
	Recent int    `json:"recent,omitempty"`
}

// FeedbackResult reports a recorded action.
type FeedbackResult struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	Published bool   `json:"published"`
}

func registerRecommendTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("recommend.next").
		Description("Recommend the task to work on next, with the factors behind the pick and runner-up alternatives").
		Handler(func(ctx context.Context, input userInput) (queries.RecommendationDTO, error) {
			return nextTool(ctx, app, input)
		})

	srv.Tool("recommend.estimate").
		Description("Instant estimate of the next task, computed with the quick scorer").
		Handler(func(ctx context.Context, input userInput) (queries.RecommendationDTO, error) {
			return estimateTool(ctx, app, input)
		})

	srv.Tool("recommend.analyze").
		Description("Summarize the open task pool: counts by priority, overdue, due today and total estimate").
		Handler(func(ctx context.Context, input userInput) (queries.AnalysisDTO, error) {
			return analyzeTool(ctx, app, input)
		})

	srv.Tool("recommend.feedback").
		Description("Record a reaction to a recommended task (accepted, skipped, feedback_positive, feedback_negative)").
		Handler(func(ctx context.Context, input feedbackInput) (FeedbackResult, error) {
			return feedbackTool(ctx, app, input)
		})

	srv.Tool("recommend.stats").
		Description("Cache hit rate, degraded mode, skipped tasks and recorded feedback").
		Handler(func(ctx context.Context, input statsInput) (queries.StatsDTO, error) {
			return statsTool(ctx, app, input)
		})

	return nil
}

func userFor(app *cli.App, requested string) string {
	if u := strings.TrimSpace(requested); u != "" {
		return u
	}
	return app.UserID()
}

func nextTool(ctx context.Context, app *cli.App, input userInput) (queries.RecommendationDTO, error) {
	if app.GetRecommendationHandler == nil {
		return queries.RecommendationDTO{}, errors.New("recommendations require initialization")
	}
	userID := userFor(app, input.UserID)
	return app.GetRecommendationHandler.Handle(observability.WithUserID(ctx, userID),
		queries.GetRecommendationQuery{UserID: userID})
}

func estimateTool(ctx context.Context, app *cli.App, input userInput) (queries.RecommendationDTO, error) {
	if app.GetEstimateHandler == nil {
		return queries.RecommendationDTO{}, errors.New("estimates require initialization")
	}
	userID := userFor(app, input.UserID)
	return app.GetEstimateHandler.Handle(observability.WithUserID(ctx, userID),
		queries.GetEstimateQuery{UserID: userID})
}

func analyzeTool(ctx context.Context, app *cli.App, input userInput) (queries.AnalysisDTO, error) {
	if app.GetAnalysisHandler == nil {
		return queries.AnalysisDTO{}, errors.New("analysis requires initialization")
	}
	userID := userFor(app, input.UserID)
	return app.GetAnalysisHandler.Handle(observability.WithUserID(ctx, userID),
		queries.GetAnalysisQuery{UserID: userID})
}

func feedbackTool(ctx context.Context, app *cli.App, input feedbackInput) (FeedbackResult, error) {
	if app.RecordActionHandler == nil {
		return FeedbackResult{}, errors.New("feedback requires initialization")
	}
	userID := userFor(app, input.UserID)
	event, err := app.RecordActionHandler.Handle(observability.WithUserID(ctx, userID), commands.RecordActionCommand{
		UserID: userID,
		TaskID: input.TaskID,
		Action: input.Action,
	})
	if err != nil && event.TaskID == "" {
		return FeedbackResult{}, err
	}
	return FeedbackResult{
		ID:        event.ID.String(),
		TaskID:    event.TaskID,
		Action:    string(event.Action),
		Timestamp: event.Timestamp.Format(time.RFC3339),
		Published: err == nil,
	}, nil
}

func statsTool(ctx context.Context, app *cli.App, input statsInput) (queries.StatsDTO, error) {
	if app.GetStatsHandler == nil {
		return queries.StatsDTO{}, errors.New("stats require initialization")
	}
	userID := userFor(app, input.UserID)
	return app.GetStatsHandler.Handle(observability.WithUserID(ctx, userID), queries.GetStatsQuery{
		UserID: userID,
		Recent: input.Recent,
	})
}
