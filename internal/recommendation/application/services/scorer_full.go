package services

import (
	"fmt"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// FullScorer is the authoritative blended-aggregate scorer.
type FullScorer struct {
	config ScoringConfig
}

// NewFullScorer creates a scorer with the given coefficients.
func NewFullScorer(cfg ScoringConfig) *FullScorer {
	return &FullScorer{config: cfg}
}

// Score implements Scorer.
func (s *FullScorer) Score(task domain.TaskRef, snapshot domain.ContextSnapshot) (domain.ScoredTask, error) {
	return FullScore(task, snapshot, s.config)
}

// FullScore evaluates every factor and blends confidence with success
// probability. Missing task fields omit the matching factor.
func FullScore(task domain.TaskRef, snapshot domain.ContextSnapshot, cfg ScoringConfig) (domain.ScoredTask, error) {
	if err := validateForScoring(task); err != nil {
		return domain.ScoredTask{}, err
	}

	factors := make([]domain.Factor, 0, 5)
	if f, ok := urgencyFactor(task); ok {
		factors = append(factors, f)
	}
	deadline, days, hasDeadline := deadlineFactor(task, snapshot)
	if hasDeadline {
		factors = append(factors, deadline)
	}
	energy := energyFactor(task, snapshot)
	factors = append(factors, energy)
	if f, ok := durationFactor(task, snapshot); ok {
		factors = append(factors, f)
	}
	if f, ok := sessionFactor(task, snapshot); ok {
		factors = append(factors, f)
	}

	confidence, err := confidenceFrom(factors, cfg)
	if err != nil {
		return domain.ScoredTask{}, &domain.ComputationError{TaskID: task.ID, Err: err}
	}

	success := cfg.SuccessBase
	if energy.Type == domain.FactorPositive {
		success += cfg.EnergyAlignedBonus
	}
	if task.HasEstimate() {
		minutes := task.EstimatedMinutes()
		if minutes <= 30 {
			success += cfg.ShortTaskBonus
		}
		if minutes > 90 && snapshot.EnergyLevel == domain.EnergyLow {
			success -= cfg.LongTaskLowEnergyPenalty
		}
	}
	success += cfg.PatternBonus[snapshot.WorkPattern]
	if hasDeadline && days <= 1 {
		success += cfg.DueSoonBonus
	}
	success = clampScore(success)

	return domain.ScoredTask{
		Task:               task,
		Factors:            factors,
		Confidence:         round2(confidence),
		SuccessProbability: round2(success),
		FinalScore:         round2(confidence*confidenceBlend + success*successBlend),
	}, nil
}

func confidenceFrom(factors []domain.Factor, cfg ScoringConfig) (float64, error) {
	if cfg.ConfidenceNormalizer <= 0 {
		return 0, ErrInvalidScoringConfig
	}
	var sum float64
	for _, f := range factors {
		coef := cfg.coefficient(f.ID)
		switch f.Type {
		case domain.FactorPositive:
			sum += f.Weight * coef
		case domain.FactorNeutral:
			sum += f.Weight * coef * cfg.NeutralDiscount
		case domain.FactorNegative:
			if f.Weight < 0 {
				sum += f.Weight * coef
			} else {
				sum -= f.Weight * coef
			}
		default:
			return 0, fmt.Errorf("factor %s: unknown type %q", f.ID, f.Type)
		}
	}
	return clampScore(sum / cfg.ConfidenceNormalizer * 100), nil
}
