package domain

import "fmt"

// FactorType classifies how a factor influences a recommendation.
type FactorType string

const (
	FactorPositive FactorType = "positive"
	FactorNegative FactorType = "negative"
	FactorNeutral  FactorType = "neutral"
)

// IsValid reports whether t is one of the three factor types.
func (t FactorType) IsValid() bool {
	switch t {
	case FactorPositive, FactorNegative, FactorNeutral:
		return true
	default:
		return false
	}
}

// Badge returns the short marker rendered next to a factor.
func (t FactorType) Badge() string {
	switch t {
	case FactorPositive:
		return "+"
	case FactorNegative:
		return "-"
	case FactorNeutral:
		return "~"
	default:
		panic(fmt.Sprintf("unknown factor type %q", string(t)))
	}
}

// Factor IDs.
const (
	FactorUrgency       = "urgency"
	FactorDeadline      = "deadline"
	FactorEnergyMatch   = "energy_match"
	FactorDurationFit   = "duration_fit"
	FactorSessionTiming = "session_timing"
)

// Factor is one weighted, labeled reason contributing to a task's score.
type Factor struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Icon        string     `json:"icon"`
	Weight      float64    `json:"weight"`
	Type        FactorType `json:"type"`
	Description string     `json:"description"`
}
