package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// AnalysisDTO is a data transfer object for the task pool analysis.
type AnalysisDTO struct {
	TotalTasks       int            `json:"total_tasks"`
	EligibleTasks    int            `json:"eligible_tasks"`
	OverdueTasks     int            `json:"overdue_tasks"`
	DueTodayTasks    int            `json:"due_today_tasks"`
	ByPriority       map[string]int `json:"by_priority"`
	EstimatedMinutes int            `json:"estimated_minutes"`
	TimeOfDay        string         `json:"time_of_day"`
	EnergyLevel      string         `json:"energy_level"`
	WorkPattern      string         `json:"work_pattern"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// GetAnalysisQuery asks for the task pool analysis.
type GetAnalysisQuery struct {
	UserID string
}

// GetAnalysisHandler handles the GetAnalysisQuery.
type GetAnalysisHandler struct {
	source domain.TaskSource
	engine Recommender
}

// NewGetAnalysisHandler creates a new GetAnalysisHandler.
func NewGetAnalysisHandler(source domain.TaskSource, engine Recommender) *GetAnalysisHandler {
	return &GetAnalysisHandler{source: source, engine: engine}
}

// Handle executes the GetAnalysisQuery.
func (h *GetAnalysisHandler) Handle(ctx context.Context, query GetAnalysisQuery) (AnalysisDTO, error) {
	tasks, err := h.source.ListTasks(ctx, query.UserID)
	if err != nil {
		return AnalysisDTO{}, fmt.Errorf("list tasks: %w", err)
	}

	a := h.engine.Analyze(ctx, tasks, query.UserID)
	return AnalysisDTO{
		TotalTasks:       a.TotalTasks,
		EligibleTasks:    a.EligibleTasks,
		OverdueTasks:     a.OverdueTasks,
		DueTodayTasks:    a.DueTodayTasks,
		ByPriority:       a.ByPriority,
		EstimatedMinutes: a.EstimatedMinutes,
		TimeOfDay:        string(a.Snapshot.TimeOfDay),
		EnergyLevel:      string(a.Snapshot.EnergyLevel),
		WorkPattern:      string(a.Snapshot.WorkPattern),
		GeneratedAt:      a.GeneratedAt,
	}, nil
}
