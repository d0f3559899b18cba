package domain

import (
	"time"
)

// TimeOfDay buckets the hour of day.
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
	TimeOfDayNight     TimeOfDay = "night"
)

// TimeOfDayFor returns the bucket for t: [6,12) morning, [12,18) afternoon,
// [18,22) evening, anything else night.
func TimeOfDayFor(t time.Time) TimeOfDay {
	hour := t.Hour()
	switch {
	case hour >= 6 && hour < 12:
		return TimeOfDayMorning
	case hour >= 12 && hour < 18:
		return TimeOfDayAfternoon
	case hour >= 18 && hour < 22:
		return TimeOfDayEvening
	default:
		return TimeOfDayNight
	}
}

// EnergyLevel is the user's current energy.
type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
)

// IsValid reports whether the level is a known value.
func (e EnergyLevel) IsValid() bool {
	switch e {
	case EnergyHigh, EnergyMedium, EnergyLow:
		return true
	default:
		return false
	}
}

// WorkPattern summarizes recent completion activity.
type WorkPattern string

const (
	WorkPatternProductive WorkPattern = "productive"
	WorkPatternModerate   WorkPattern = "moderate"
	WorkPatternLow        WorkPattern = "low"
	WorkPatternInactive   WorkPattern = "inactive"
)

// IsValid reports whether the pattern is a known value.
func (w WorkPattern) IsValid() bool {
	switch w {
	case WorkPatternProductive, WorkPatternModerate, WorkPatternLow, WorkPatternInactive:
		return true
	default:
		return false
	}
}

// WorkHistory is the energy and activity signal for a user.
type WorkHistory struct {
	EnergyLevel         EnergyLevel `json:"energy_level" yaml:"energy_level"`
	WorkPattern         WorkPattern `json:"work_pattern" yaml:"work_pattern"`
	CompletedTasksToday int         `json:"completed_tasks_today" yaml:"completed_tasks_today"`
}

// DefaultWorkHistory is used whenever no usable history is available.
func DefaultWorkHistory() WorkHistory {
	return WorkHistory{
		EnergyLevel:         EnergyMedium,
		WorkPattern:         WorkPatternInactive,
		CompletedTasksToday: 0,
	}
}

// ContextSnapshot describes "now" for scoring. It is a value type and is
// never mutated after construction.
type ContextSnapshot struct {
	TimeOfDay           TimeOfDay    `json:"time_of_day"`
	DayOfWeek           time.Weekday `json:"day_of_week"`
	IsWeekend           bool         `json:"is_weekend"`
	EnergyLevel         EnergyLevel  `json:"energy_level"`
	WorkPattern         WorkPattern  `json:"work_pattern"`
	CompletedTasksToday int          `json:"completed_tasks_today"`

	// CapturedAt is the instant the snapshot describes. It is not part of
	// the snapshot's identity.
	CapturedAt time.Time `json:"captured_at"`
}
