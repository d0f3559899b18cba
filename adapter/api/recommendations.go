package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/nextup/internal/recommendation/application/commands"
	"github.com/felixgeelhaar/nextup/internal/recommendation/application/queries"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/pkg/observability"
)

// UserIDHeader selects the user a request acts for.
const UserIDHeader = "X-User-ID"

// RecommendationHandler handles recommendation API requests.
type RecommendationHandler struct {
	recommendation *queries.GetRecommendationHandler
	estimate       *queries.GetEstimateHandler
	analysis       *queries.GetAnalysisHandler
	stats          *queries.GetStatsHandler
	recordAction   *commands.RecordActionHandler
	invalidate     *commands.InvalidateCacheHandler
	defaultUserID  string
	logger         *slog.Logger
}

// RecommendationHandlerConfig holds dependencies for the recommendation handler.
type RecommendationHandlerConfig struct {
	Recommendation  *queries.GetRecommendationHandler
	Estimate        *queries.GetEstimateHandler
	Analysis        *queries.GetAnalysisHandler
	Stats           *queries.GetStatsHandler
	RecordAction    *commands.RecordActionHandler
	InvalidateCache *commands.InvalidateCacheHandler
	DefaultUserID   string
	Logger          *slog.Logger
}

// NewRecommendationHandler creates a new recommendation handler.
func NewRecommendationHandler(cfg RecommendationHandlerConfig) *RecommendationHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RecommendationHandler{
		recommendation: cfg.Recommendation,
		estimate:       cfg.Estimate,
		analysis:       cfg.Analysis,
		stats:          cfg.Stats,
		recordAction:   cfg.RecordAction,
		invalidate:     cfg.InvalidateCache,
		defaultUserID:  cfg.DefaultUserID,
		logger:         cfg.Logger,
	}
}

// userID resolves the acting user from the header, then the user_id query
// parameter, then the configured default.
func (h *RecommendationHandler) userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.URL.Query().Get("user_id")); id != "" {
		return id
	}
	return h.defaultUserID
}

// Next handles GET /api/v1/recommendations/next
func (h *RecommendationHandler) Next(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	ctx := observability.WithUserID(r.Context(), userID)

	result, err := h.recommendation.Handle(ctx, queries.GetRecommendationQuery{UserID: userID})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate recommendation", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to generate recommendation")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Estimate handles GET /api/v1/recommendations/estimate
func (h *RecommendationHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	ctx := observability.WithUserID(r.Context(), userID)

	result, err := h.estimate.Handle(ctx, queries.GetEstimateQuery{UserID: userID})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to estimate recommendation", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to estimate recommendation")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Analysis handles GET /api/v1/recommendations/analysis
func (h *RecommendationHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	ctx := observability.WithUserID(r.Context(), userID)

	result, err := h.analysis.Handle(ctx, queries.GetAnalysisQuery{UserID: userID})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to analyze tasks", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to analyze tasks")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type recordActionRequest struct {
	TaskID string `json:"task_id"`
	Action string `json:"action"`
}

type recordActionResponse struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	Published bool   `json:"published"`
}

// RecordAction handles POST /api/v1/recommendations/actions
func (h *RecommendationHandler) RecordAction(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	ctx := observability.WithUserID(r.Context(), userID)

	var req recordActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	event, err := h.recordAction.Handle(ctx, commands.RecordActionCommand{
		UserID: userID,
		TaskID: req.TaskID,
		Action: req.Action,
	})
	switch {
	case errors.Is(err, commands.ErrMissingTaskID), errors.Is(err, domain.ErrInvalidAction):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil && event.ID == uuid.Nil:
		h.logger.ErrorContext(ctx, "failed to record action", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to record action")
		return
	case err != nil:
		// The engine already applied the action; only the event was lost.
		h.logger.WarnContext(ctx, "action recorded but not published", "error", err)
	}

	respondJSON(w, http.StatusAccepted, recordActionResponse{
		ID:        event.ID.String(),
		TaskID:    event.TaskID,
		Action:    string(event.Action),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Published: err == nil,
	})
}

// InvalidateCache handles DELETE /api/v1/recommendations/cache
func (h *RecommendationHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	ctx := observability.WithUserID(r.Context(), userID)

	err := h.invalidate.Handle(ctx, commands.InvalidateCacheCommand{
		UserID:   userID,
		Variants: r.URL.Query()["variant"],
	})
	if errors.Is(err, commands.ErrUnknownVariant) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to invalidate cache", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to invalidate cache")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/recommendations/cache/stats
func (h *RecommendationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	ctx := observability.WithUserID(r.Context(), userID)

	result, err := h.stats.Handle(ctx, queries.GetStatsQuery{
		UserID: userID,
		Recent: parseIntParam(r, "recent", 10),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load stats", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}
