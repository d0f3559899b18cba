package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/recommendation/infrastructure/cache"
)

// StatsSource exposes cache and session statistics.
type StatsSource interface {
	CacheStats(ctx context.Context) cache.Stats
	IsDegraded(userID string) bool
	Skipped(userID string) []string
}

// ActionDTO is a data transfer object for a recorded action.
type ActionDTO struct {
	TaskID    string `json:"task_id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// StatsDTO summarizes engine health for a user.
type StatsDTO struct {
	Cache         cache.Stats    `json:"cache"`
	Degraded      bool           `json:"degraded"`
	SkippedTasks  []string       `json:"skipped_tasks"`
	ActionCounts  map[string]int `json:"action_counts,omitempty"`
	RecentActions []ActionDTO    `json:"recent_actions,omitempty"`
}

// GetStatsQuery asks for engine statistics.
type GetStatsQuery struct {
	UserID string
	Recent int
}

// GetStatsHandler handles the GetStatsQuery.
type GetStatsHandler struct {
	stats   StatsSource
	actions domain.ActionRepository
}

// NewGetStatsHandler creates a new GetStatsHandler. A nil repository omits
// action history.
func NewGetStatsHandler(stats StatsSource, actions domain.ActionRepository) *GetStatsHandler {
	return &GetStatsHandler{stats: stats, actions: actions}
}

// Handle executes the GetStatsQuery.
func (h *GetStatsHandler) Handle(ctx context.Context, query GetStatsQuery) (StatsDTO, error) {
	dto := StatsDTO{
		Cache:        h.stats.CacheStats(ctx),
		Degraded:     h.stats.IsDegraded(query.UserID),
		SkippedTasks: h.stats.Skipped(query.UserID),
	}
	if h.actions == nil {
		return dto, nil
	}

	counts, err := h.actions.CountByAction(ctx, query.UserID)
	if err != nil {
		return dto, err
	}
	dto.ActionCounts = make(map[string]int, len(counts))
	for action, n := range counts {
		dto.ActionCounts[string(action)] = n
	}

	limit := query.Recent
	if limit <= 0 {
		limit = 10
	}
	events, err := h.actions.ListByUser(ctx, query.UserID, limit)
	if err != nil {
		return dto, err
	}
	for _, e := range events {
		dto.RecentActions = append(dto.RecentActions, ActionDTO{
			TaskID:    e.TaskID,
			Action:    string(e.Action),
			Timestamp: e.Timestamp.Format(time.RFC3339),
		})
	}
	return dto, nil
}
