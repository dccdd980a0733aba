package features

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/jonathan/skill-recommender/internal/skills"
	"github.com/jonathan/skill-recommender/internal/types"
)

// ItemMatrix builds the binary item×skill presence matrix: entry (i, j) is 1
// when item i requires the skill at column j. Skills without a column are
// ignored. Returns nil when there are no items or no columns.
func ItemMatrix(items []types.Item, index *skills.Index) *mat.Dense {
	if len(items) == 0 || index.Len() == 0 {
		return nil
	}
	m := mat.NewDense(len(items), index.Len(), nil)
	for i, it := range items {
		for _, id := range it.SkillIDs {
			if col, ok := index.Column(id); ok {
				m.Set(i, col, 1)
			}
		}
	}
	return m
}

// Builder converts user signal bundles into weighted skill vectors.
type Builder struct {
	weights Weights
	names   *skills.NameTable
}

// NewBuilder creates a builder. names resolves skills mentioned in goal
// descriptions and may be nil, in which case goals contribute nothing.
func NewBuilder(weights Weights, names *skills.NameTable) *Builder {
	return &Builder{weights: weights, names: names}
}

// Weights returns the builder's weighting.
func (b *Builder) Weights() Weights {
	return b.weights
}

// UserVector accumulates weighted evidence from the bundle's current skills,
// goals, positions and certificates into a vector over index. The result is
// L2-normalised unless every entry is zero, in which case the zero vector is
// returned unchanged. Skills without a column in index are dropped.
func (b *Builder) UserVector(bundle *types.SignalBundle, index *skills.Index) []float64 {
	vec := make([]float64, index.Len())
	if bundle == nil || len(vec) == 0 {
		return vec
	}

	b.addSource(vec, index, bundle.Skills.Skills(), b.weights.Current)

	// Each goal is weighted by its own priority.
	for _, goal := range bundle.Goals {
		ids := b.names.Extract(goal.Description)
		if len(ids) == 0 {
			continue
		}
		weight := b.weights.Goal * b.weights.Priority.For(goal.Priority)
		b.addSource(vec, index, ids, weight)
	}

	b.addSource(vec, index, bundle.Positions.Skills(), b.weights.Position)
	b.addSource(vec, index, bundle.Certificates.Skills(), b.weights.Certificate)

	Normalize(vec)
	return vec
}

// addSource counts occurrences of each skill within one source and adds its
// contribution to the vector.
func (b *Builder) addSource(vec []float64, index *skills.Index, ids []int64, base float64) {
	if len(ids) == 0 {
		return
	}
	counts := make(map[int64]int, len(ids))
	order := make([]int64, 0, len(ids))
	for _, id := range ids {
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}
	for _, id := range order {
		col, ok := index.Column(id)
		if !ok {
			continue
		}
		vec[col] += b.weights.Contribution(base, counts[id])
	}
}

// Normalize scales v to unit Euclidean length in place. A zero vector is left
// untouched.
func Normalize(v []float64) {
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return
	}
	floats.Scale(1/norm, v)
}
