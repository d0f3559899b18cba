package queries

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// Recommender is the engine surface used by the query handlers.
type Recommender interface {
	Generate(ctx context.Context, tasks []domain.TaskRef, userID string) (*domain.Result, error)
	Estimate(ctx context.Context, tasks []domain.TaskRef, userID string) *domain.Result
	Analyze(ctx context.Context, tasks []domain.TaskRef, userID string) *domain.Analysis
	IsDegraded(userID string) bool
}

// GetRecommendationQuery asks for the authoritative recommendation.
type GetRecommendationQuery struct {
	UserID string
}

// GetRecommendationHandler handles the GetRecommendationQuery.
type GetRecommendationHandler struct {
	source domain.TaskSource
	engine Recommender
}

// NewGetRecommendationHandler creates a new GetRecommendationHandler.
func NewGetRecommendationHandler(source domain.TaskSource, engine Recommender) *GetRecommendationHandler {
	return &GetRecommendationHandler{source: source, engine: engine}
}

// Handle executes the GetRecommendationQuery.
func (h *GetRecommendationHandler) Handle(ctx context.Context, query GetRecommendationQuery) (RecommendationDTO, error) {
	tasks, err := h.source.ListTasks(ctx, query.UserID)
	if err != nil {
		return RecommendationDTO{}, fmt.Errorf("list tasks: %w", err)
	}

	result, err := h.engine.Generate(ctx, tasks, query.UserID)
	if err != nil {
		return RecommendationDTO{}, err
	}
	return ToRecommendationDTO(result, h.engine.IsDegraded(query.UserID)), nil
}

// GetEstimateQuery asks for the quick estimate.
type GetEstimateQuery struct {
	UserID string
}

// GetEstimateHandler handles the GetEstimateQuery.
type GetEstimateHandler struct {
	source domain.TaskSource
	engine Recommender
}

// NewGetEstimateHandler creates a new GetEstimateHandler.
func NewGetEstimateHandler(source domain.TaskSource, engine Recommender) *GetEstimateHandler {
	return &GetEstimateHandler{source: source, engine: engine}
}

// Handle executes the GetEstimateQuery.
func (h *GetEstimateHandler) Handle(ctx context.Context, query GetEstimateQuery) (RecommendationDTO, error) {
	tasks, err := h.source.ListTasks(ctx, query.UserID)
	if err != nil {
		return RecommendationDTO{}, fmt.Errorf("list tasks: %w", err)
	}
	return ToRecommendationDTO(h.engine.Estimate(ctx, tasks, query.UserID), false), nil
}
