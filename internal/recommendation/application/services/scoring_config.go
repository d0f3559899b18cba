package services

import (
	"errors"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// ErrInvalidScoringConfig is returned when a config cannot produce bounded scores.
var ErrInvalidScoringConfig = errors.New("invalid scoring config")

// ScoringConfig holds the tunable coefficients of the full scorer. The
// 0.6/0.4 confidence/success blend is fixed and not configurable.
type ScoringConfig struct {
	UrgencyCoefficient       float64 `yaml:"urgency_coefficient"`
	DeadlineCoefficient      float64 `yaml:"deadline_coefficient"`
	EnergyCoefficient        float64 `yaml:"energy_coefficient"`
	DurationCoefficient      float64 `yaml:"duration_coefficient"`
	SessionCoefficient       float64 `yaml:"session_coefficient"`
	NeutralDiscount          float64 `yaml:"neutral_discount"`
	ConfidenceNormalizer     float64 `yaml:"confidence_normalizer"`
	SuccessBase              float64 `yaml:"success_base"`
	EnergyAlignedBonus       float64 `yaml:"energy_aligned_bonus"`
	ShortTaskBonus           float64 `yaml:"short_task_bonus"`
	LongTaskLowEnergyPenalty float64 `yaml:"long_task_low_energy_penalty"`
	DueSoonBonus             float64 `yaml:"due_soon_bonus"`

	PatternBonus map[domain.WorkPattern]float64 `yaml:"pattern_bonus"`
}

// DefaultScoringConfig returns the production coefficients.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		UrgencyCoefficient:       1.0,
		DeadlineCoefficient:      0.5,
		EnergyCoefficient:        1.0,
		DurationCoefficient:      1.0,
		SessionCoefficient:       1.0,
		NeutralDiscount:          0.5,
		ConfidenceNormalizer:     150,
		SuccessBase:              50,
		EnergyAlignedBonus:       20,
		ShortTaskBonus:           10,
		LongTaskLowEnergyPenalty: 10,
		DueSoonBonus:             5,
		PatternBonus: map[domain.WorkPattern]float64{
			domain.WorkPatternProductive: 10,
			domain.WorkPatternModerate:   5,
			domain.WorkPatternLow:        0,
			domain.WorkPatternInactive:   -5,
		},
	}
}

// Validate checks that the config can be used for scoring.
func (c ScoringConfig) Validate() error {
	if c.ConfidenceNormalizer <= 0 {
		return errors.Join(ErrInvalidScoringConfig, errors.New("confidence_normalizer must be positive"))
	}
	coefficients := []float64{
		c.UrgencyCoefficient,
		c.DeadlineCoefficient,
		c.EnergyCoefficient,
		c.DurationCoefficient,
		c.SessionCoefficient,
		c.NeutralDiscount,
	}
	for _, v := range coefficients {
		if v < 0 {
			return errors.Join(ErrInvalidScoringConfig, errors.New("coefficients must not be negative"))
		}
	}
	return nil
}

// coefficient returns the confidence coefficient for a factor id.
func (c ScoringConfig) coefficient(factorID string) float64 {
	switch factorID {
	case domain.FactorUrgency:
		return c.UrgencyCoefficient
	case domain.FactorDeadline:
		return c.DeadlineCoefficient
	case domain.FactorEnergyMatch:
		return c.EnergyCoefficient
	case domain.FactorDurationFit:
		return c.DurationCoefficient
	case domain.FactorSessionTiming:
		return c.SessionCoefficient
	default:
		return 1.0
	}
}
