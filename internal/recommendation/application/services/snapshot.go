package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// WorkHistoryProvider supplies the energy and activity signal for a user.
type WorkHistoryProvider interface {
	WorkHistory(ctx context.Context, userID string, now time.Time) (domain.WorkHistory, error)
}

// StaticWorkHistory always reports the same history.
type StaticWorkHistory struct {
	History domain.WorkHistory
}

// WorkHistory implements WorkHistoryProvider.
func (s StaticWorkHistory) WorkHistory(_ context.Context, _ string, _ time.Time) (domain.WorkHistory, error) {
	return s.History, nil
}

// BuildSnapshot derives a snapshot from now and a work history. It never
// fails: a zero now is treated as afternoon and unknown history values fall
// back to the defaults.
func BuildSnapshot(now time.Time, history domain.WorkHistory) domain.ContextSnapshot {
	history = sanitizeHistory(history)

	timeOfDay := domain.TimeOfDayAfternoon
	if !now.IsZero() {
		timeOfDay = domain.TimeOfDayFor(now)
	}

	day := now.Weekday()
	return domain.ContextSnapshot{
		TimeOfDay:           timeOfDay,
		DayOfWeek:           day,
		IsWeekend:           !now.IsZero() && (day == time.Saturday || day == time.Sunday),
		EnergyLevel:         history.EnergyLevel,
		WorkPattern:         history.WorkPattern,
		CompletedTasksToday: history.CompletedTasksToday,
		CapturedAt:          now,
	}
}

func sanitizeHistory(h domain.WorkHistory) domain.WorkHistory {
	defaults := domain.DefaultWorkHistory()
	if !h.EnergyLevel.IsValid() {
		h.EnergyLevel = defaults.EnergyLevel
	}
	if !h.WorkPattern.IsValid() {
		h.WorkPattern = defaults.WorkPattern
	}
	if h.CompletedTasksToday < 0 {
		h.CompletedTasksToday = 0
	}
	return h
}

// SnapshotBuilder builds snapshots for a user from a history provider.
type SnapshotBuilder struct {
	provider WorkHistoryProvider
	logger   *slog.Logger
}

// NewSnapshotBuilder creates a builder. A nil provider yields default history.
func NewSnapshotBuilder(provider WorkHistoryProvider, logger *slog.Logger) *SnapshotBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotBuilder{provider: provider, logger: logger}
}

// Build returns the snapshot for userID at now. Provider failures are logged
// and replaced by the default history.
func (b *SnapshotBuilder) Build(ctx context.Context, userID string, now time.Time) domain.ContextSnapshot {
	history := domain.DefaultWorkHistory()
	if b.provider != nil {
		h, err := b.provider.WorkHistory(ctx, userID, now)
		if err != nil {
			b.logger.WarnContext(ctx, "work history unavailable, using defaults",
				"user_id", userID,
				"error", err,
			)
		} else {
			history = h
		}
	}
	return BuildSnapshot(now, history)
}
