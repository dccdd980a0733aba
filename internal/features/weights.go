// Package features turns item skill associations and user signal bundles
// into numeric vectors over a skill index.
package features

import "github.com/jonathan/skill-recommender/internal/types"

// Default source weights.
const (
	DefaultCurrentWeight     = 0.5
	DefaultGoalWeight        = 2.0
	DefaultPositionWeight    = 1.0
	DefaultCertificateWeight = 0.7
	DefaultRepetitionBonus   = 0.15
)

// Weights controls how much each evidence source contributes to a user vector.
type Weights struct {
	Current     float64 `json:"current" yaml:"current" validate:"gte=0"`
	Goal        float64 `json:"goal" yaml:"goal" validate:"gte=0"`
	Position    float64 `json:"position" yaml:"position" validate:"gte=0"`
	Certificate float64 `json:"certificate" yaml:"certificate" validate:"gte=0"`

	// RepetitionBonus is added once per extra occurrence of a skill within a
	// single source.
	RepetitionBonus float64 `json:"repetition_bonus" yaml:"repetition_bonus" validate:"gte=0"`

	// Priority multiplies Goal for each goal's extracted skills.
	Priority PriorityMultipliers `json:"priority" yaml:"priority"`
}

// PriorityMultipliers scale the goal weight by goal priority.
type PriorityMultipliers struct {
	High   float64 `json:"high" yaml:"high" validate:"gte=0"`
	Medium float64 `json:"medium" yaml:"medium" validate:"gte=0"`
	Low    float64 `json:"low" yaml:"low" validate:"gte=0"`
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Current:         DefaultCurrentWeight,
		Goal:            DefaultGoalWeight,
		Position:        DefaultPositionWeight,
		Certificate:     DefaultCertificateWeight,
		RepetitionBonus: DefaultRepetitionBonus,
		Priority: PriorityMultipliers{
			High:   2.0,
			Medium: 1.5,
			Low:    1.0,
		},
	}
}

// For returns the multiplier for a priority label. Unknown labels use Low.
func (m PriorityMultipliers) For(p types.Priority) float64 {
	switch p.Normalize() {
	case types.PriorityHigh:
		return m.High
	case types.PriorityMedium:
		return m.Medium
	default:
		return m.Low
	}
}

// Contribution is the weight a skill seen count times in one source adds to
// the vector: the base weight plus a flat bonus for every repeat.
func (w Weights) Contribution(base float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return base + w.RepetitionBonus*float64(count-1)
}
