package services

import (
	"fmt"
	"math"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/felixgeelhaar/nextup/internal/recommendation/domain/value_objects"
)

// Scorer scores a single task against a snapshot.
type Scorer interface {
	Score(task domain.TaskRef, snapshot domain.ContextSnapshot) (domain.ScoredTask, error)
}

const (
	confidenceBlend = 0.6
	successBlend    = 0.4
)

var urgencyValues = map[value_objects.Priority]float64{
	value_objects.PriorityUrgent: 100,
	value_objects.PriorityHigh:   80,
	value_objects.PriorityMedium: 60,
	value_objects.PriorityLow:    40,
}

// urgencyFactor is omitted for unset priority.
func urgencyFactor(task domain.TaskRef) (domain.Factor, bool) {
	value, ok := urgencyValues[task.Priority]
	if !ok {
		return domain.Factor{}, false
	}
	return domain.Factor{
		ID:          domain.FactorUrgency,
		Label:       "Urgency",
		Icon:        "flag",
		Weight:      value,
		Type:        domain.FactorPositive,
		Description: fmt.Sprintf("%s priority", task.Priority),
	}, true
}

// daysUntil rounds the remaining time up to whole days.
func daysUntil(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// deadlineFactor is omitted when the task has no due date or the snapshot
// carries no reference time.
func deadlineFactor(task domain.TaskRef, snapshot domain.ContextSnapshot) (domain.Factor, int, bool) {
	if task.DueDate == nil || snapshot.CapturedAt.IsZero() {
		return domain.Factor{}, 0, false
	}

	days := daysUntil(*task.DueDate, snapshot.CapturedAt)
	f := domain.Factor{
		ID:    domain.FactorDeadline,
		Label: "Deadline",
		Icon:  "calendar",
		Type:  domain.FactorPositive,
	}
	switch {
	case days <= 0:
		f.Weight = 90
		f.Description = "Overdue or due today"
	case days <= 1:
		f.Weight = 85
		f.Description = "Due within a day"
	case days <= 3:
		f.Weight = 60
		f.Description = fmt.Sprintf("Due in %d days", days)
	default:
		f.Weight = 30
		f.Type = domain.FactorNeutral
		f.Description = fmt.Sprintf("Due in %d days", days)
	}
	return f, days, true
}

func isDemanding(p value_objects.Priority) bool {
	return p == value_objects.PriorityHigh || p == value_objects.PriorityUrgent
}

// energyFactor is never negative: a mismatch yields a neutral zero factor.
func energyFactor(task domain.TaskRef, snapshot domain.ContextSnapshot) domain.Factor {
	f := domain.Factor{
		ID:    domain.FactorEnergyMatch,
		Label: "Energy match",
		Icon:  "bolt",
	}
	switch {
	case snapshot.EnergyLevel == domain.EnergyHigh && task.Priority == value_objects.PriorityUrgent:
		f.Weight = 15
		f.Type = domain.FactorPositive
		f.Description = "High energy suits an urgent task"
	case snapshot.EnergyLevel == domain.EnergyHigh && task.Priority == value_objects.PriorityHigh:
		f.Weight = 10
		f.Type = domain.FactorPositive
		f.Description = "High energy suits a demanding task"
	case snapshot.EnergyLevel == domain.EnergyLow && task.HasEstimate() && task.EstimatedMinutes() <= 20:
		f.Weight = 8
		f.Type = domain.FactorPositive
		f.Description = "Short task fits low energy"
	default:
		f.Weight = 0
		f.Type = domain.FactorNeutral
		f.Description = "No particular energy fit"
	}
	return f
}

// durationFactor is omitted when there is no estimate.
func durationFactor(task domain.TaskRef, snapshot domain.ContextSnapshot) (domain.Factor, bool) {
	if !task.HasEstimate() {
		return domain.Factor{}, false
	}
	minutes := task.EstimatedMinutes()
	f := domain.Factor{
		ID:    domain.FactorDurationFit,
		Label: "Duration fit",
		Icon:  "clock",
		Type:  domain.FactorPositive,
	}
	switch {
	case minutes <= 15:
		f.Weight = 12
		f.Description = "Quick win"
	case minutes <= 30:
		f.Weight = 6
		f.Description = "Fits a short session"
	case snapshot.EnergyLevel == domain.EnergyHigh:
		f.Weight = 5
		f.Description = "Enough energy for a longer task"
	default:
		return domain.Factor{}, false
	}
	return f, true
}

// sessionFactor is omitted when the time of day has nothing to say.
func sessionFactor(task domain.TaskRef, snapshot domain.ContextSnapshot) (domain.Factor, bool) {
	f := domain.Factor{
		ID:    domain.FactorSessionTiming,
		Label: "Session timing",
		Icon:  "sun",
	}
	minutes := task.EstimatedMinutes()
	late := snapshot.TimeOfDay == domain.TimeOfDayEvening || snapshot.TimeOfDay == domain.TimeOfDayNight

	switch {
	case snapshot.TimeOfDay == domain.TimeOfDayMorning && isDemanding(task.Priority):
		f.Weight = 10
		f.Type = domain.FactorPositive
		f.Description = "Mornings suit important work"
	case late && task.HasEstimate() && minutes <= 30:
		f.Weight = 5
		f.Type = domain.FactorPositive
		f.Description = "Short task for the end of the day"
	case snapshot.TimeOfDay == domain.TimeOfDayNight && minutes > 60:
		f.Weight = -10
		f.Type = domain.FactorNegative
		f.Description = "Long task late at night"
	default:
		return domain.Factor{}, false
	}
	return f, true
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validateForScoring(task domain.TaskRef) error {
	if err := task.Validate(); err != nil {
		return &domain.ComputationError{TaskID: task.ID, Err: err}
	}
	return nil
}
