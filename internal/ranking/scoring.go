package ranking

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Score returns the cosine similarity between the user vector and every
// trained item row. The vector must be built over this model's skill index;
// a length mismatch is a programming error and panics. The zero vector
// scores 0 against every item.
func (m *Model) Score(userVector []float64) []float64 {
	if len(userVector) != m.index.Len() {
		panic(fmt.Sprintf("ranking: user vector has %d columns, model has %d", len(userVector), m.index.Len()))
	}

	scores := make([]float64, m.Len())
	norm := floats.Norm(userVector, 2)
	if norm == 0 {
		return scores
	}

	// Rows are unit length (or zero), so the dot product divided by the
	// user norm is the cosine.
	out := mat.NewVecDense(m.Len(), scores)
	out.MulVec(m.features, mat.NewVecDense(len(userVector), userVector))
	floats.Scale(1/norm, scores)
	return scores
}

// ApplyProviderBonus adds bonus to the score of every item whose provider is
// in existingProviders. scores is modified in place and must come from Score
// on the same model.
func (m *Model) ApplyProviderBonus(scores []float64, existingProviders []int64, bonus float64) {
	if bonus == 0 || len(existingProviders) == 0 {
		return
	}
	known := make(map[int64]struct{}, len(existingProviders))
	for _, p := range existingProviders {
		known[p] = struct{}{}
	}
	for row := range scores {
		p, ok := m.Provider(row)
		if !ok {
			continue
		}
		if _, ok := known[p]; ok {
			scores[row] += bonus
		}
	}
}
