package queries

import (
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// FactorDTO is a data transfer object for factors.
type FactorDTO struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Icon        string  `json:"icon"`
	Badge       string  `json:"badge"`
	Weight      float64 `json:"weight"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
}

// ScoredTaskDTO is a data transfer object for a ranked task.
type ScoredTaskDTO struct {
	TaskID             string      `json:"task_id"`
	Title              string      `json:"title"`
	Status             string      `json:"status"`
	Priority           string      `json:"priority"`
	DueDate            *time.Time  `json:"due_date,omitempty"`
	EstimatedMinutes   int         `json:"estimated_minutes,omitempty"`
	Factors            []FactorDTO `json:"factors"`
	Confidence         float64     `json:"confidence"`
	SuccessProbability float64     `json:"success_probability"`
	FinalScore         float64     `json:"final_score"`
}

// RecommendationDTO is a data transfer object for a recommendation.
type RecommendationDTO struct {
	Primary      *ScoredTaskDTO  `json:"primary"`
	Alternatives []ScoredTaskDTO `json:"alternatives"`
	Source       string          `json:"source,omitempty"`
	GeneratedAt  *time.Time      `json:"generated_at,omitempty"`
	TimeOfDay    string          `json:"time_of_day,omitempty"`
	EnergyLevel  string          `json:"energy_level,omitempty"`
	WorkPattern  string          `json:"work_pattern,omitempty"`
	Degraded     bool            `json:"degraded"`
}

// Empty reports whether there was nothing to recommend.
func (r RecommendationDTO) Empty() bool {
	return r.Primary == nil
}

func toFactorDTOs(factors []domain.Factor) []FactorDTO {
	out := make([]FactorDTO, 0, len(factors))
	for _, f := range factors {
		if !f.Type.IsValid() {
			continue
		}
		out = append(out, FactorDTO{
			ID:          f.ID,
			Label:       f.Label,
			Icon:        f.Icon,
			Badge:       f.Type.Badge(),
			Weight:      f.Weight,
			Type:        string(f.Type),
			Description: f.Description,
		})
	}
	return out
}

func toScoredTaskDTO(st domain.ScoredTask) ScoredTaskDTO {
	return ScoredTaskDTO{
		TaskID:             st.Task.ID,
		Title:              st.Task.Title,
		Status:             string(st.Task.Status),
		Priority:           st.Task.Priority.String(),
		DueDate:            st.Task.DueDate,
		EstimatedMinutes:   st.Task.EstimatedMinutes(),
		Factors:            toFactorDTOs(st.Factors),
		Confidence:         st.Confidence,
		SuccessProbability: st.SuccessProbability,
		FinalScore:         st.FinalScore,
	}
}

// ToRecommendationDTO maps a result. A nil result yields an empty DTO.
func ToRecommendationDTO(r *domain.Result, degraded bool) RecommendationDTO {
	dto := RecommendationDTO{
		Alternatives: []ScoredTaskDTO{},
		Degraded:     degraded,
	}
	if r == nil {
		return dto
	}

	primary := toScoredTaskDTO(r.Primary)
	dto.Primary = &primary
	for _, alt := range r.Alternatives {
		dto.Alternatives = append(dto.Alternatives, toScoredTaskDTO(alt))
	}
	generated := r.GeneratedAt
	dto.GeneratedAt = &generated
	dto.Source = string(r.Source)
	dto.TimeOfDay = string(r.Snapshot.TimeOfDay)
	dto.EnergyLevel = string(r.Snapshot.EnergyLevel)
	dto.WorkPattern = string(r.Snapshot.WorkPattern)
	return dto
}
