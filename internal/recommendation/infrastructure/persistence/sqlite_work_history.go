package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// ErrInvalidEnergy is returned when an energy score is outside 1..10.
var ErrInvalidEnergy = errors.New("energy score must be between 1 and 10")

// Energy thresholds on the 1..10 wellness scale.
const (
	highEnergyMin   = 7
	mediumEnergyMin = 4
)

// Completions over the trailing week that select each work pattern.
const (
	productiveWeekMin = 21
	moderateWeekMin   = 10
	lowWeekMin        = 1
)

// SQLiteWorkHistory derives a user's work history from wellness check-ins
// and task completions.
type SQLiteWorkHistory struct {
	dbConn *sql.DB
}

// NewSQLiteWorkHistory creates a new SQLite work history provider.
func NewSQLiteWorkHistory(dbConn *sql.DB) *SQLiteWorkHistory {
	return &SQLiteWorkHistory{dbConn: dbConn}
}

// RecordEnergy stores a wellness check-in.
func (h *SQLiteWorkHistory) RecordEnergy(ctx context.Context, userID string, energy int, at time.Time) error {
	if energy < 1 || energy > 10 {
		return ErrInvalidEnergy
	}
	_, err := h.dbConn.ExecContext(ctx,
		`INSERT INTO wellness_entries (user_id, energy, recorded_at) VALUES (?, ?, ?)`,
		userID, energy, formatTime(at))
	if err != nil {
		return fmt.Errorf("failed to record energy: %w", err)
	}
	return nil
}

// WorkHistory implements services.WorkHistoryProvider. "Today" starts at
// midnight in now's location.
func (h *SQLiteWorkHistory) WorkHistory(ctx context.Context, userID string, now time.Time) (domain.WorkHistory, error) {
	history := domain.DefaultWorkHistory()

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := dayStart.AddDate(0, 0, -6)

	var energy int
	err := h.dbConn.QueryRowContext(ctx, `
		SELECT energy FROM wellness_entries
		WHERE user_id = ? AND recorded_at >= ? AND recorded_at <= ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`, userID, formatTime(dayStart), formatTime(now)).Scan(&energy)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return history, fmt.Errorf("failed to read wellness entries: %w", err)
	default:
		history.EnergyLevel = energyLevelFor(energy)
	}

	var today, week int
	err = h.dbConn.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN completed_at >= ? THEN 1 ELSE 0 END), 0),
			COUNT(*)
		FROM tasks
		WHERE user_id = ? AND completed_at IS NOT NULL
			AND completed_at >= ? AND completed_at <= ?`,
		formatTime(dayStart), userID, formatTime(weekStart), formatTime(now)).Scan(&today, &week)
	if err != nil {
		return history, fmt.Errorf("failed to count completions: %w", err)
	}

	history.CompletedTasksToday = today
	history.WorkPattern = workPatternFor(week)
	return history, nil
}

func energyLevelFor(score int) domain.EnergyLevel {
	switch {
	case score >= highEnergyMin:
		return domain.EnergyHigh
	case score >= mediumEnergyMin:
		return domain.EnergyMedium
	default:
		return domain.EnergyLow
	}
}

func workPatternFor(completedThisWeek int) domain.WorkPattern {
	switch {
	case completedThisWeek >= productiveWeekMin:
		return domain.WorkPatternProductive
	case completedThisWeek >= moderateWeekMin:
		return domain.WorkPatternModerate
	case completedThisWeek >= lowWeekMin:
		return domain.WorkPatternLow
	default:
		return domain.WorkPatternInactive
	}
}
