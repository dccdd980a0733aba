package ranking

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TFIDF returns a TF-IDF weighted copy of a binary item×skill presence
// matrix. The inverse document frequency of column j is smoothed,
//
//	idf_j = ln((1 + N) / (1 + df_j)) + 1
//
// where N is the number of rows and df_j the number of rows containing the
// skill, so it stays positive even for skills every item requires. Each row
// is then scaled to unit Euclidean length; all-zero rows stay zero.
func TFIDF(presence *mat.Dense) *mat.Dense {
	rows, cols := presence.Dims()
	out := mat.DenseCopyOf(presence)

	idf := make([]float64, cols)
	for j := 0; j < cols; j++ {
		df := 0
		for i := 0; i < rows; i++ {
			if presence.At(i, j) != 0 {
				df++
			}
		}
		idf[j] = math.Log(float64(1+rows)/float64(1+df)) + 1
	}

	for i := 0; i < rows; i++ {
		row := out.RawRowView(i)
		floats.Mul(row, idf)
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
	}
	return out
}

// CosineSimilarity computes the item×item cosine similarity of the rows of
// a row-normalised matrix. The diagonal is pinned to 1 (an item is always
// identical to itself, including items with no skills) and values are
// clamped to [-1, 1] to absorb rounding.
func CosineSimilarity(normalized *mat.Dense) *mat.SymDense {
	rows, _ := normalized.Dims()
	sim := mat.NewSymDense(rows, nil)
	sim.SymOuterK(1, normalized)

	for i := 0; i < rows; i++ {
		sim.SetSym(i, i, 1)
		for j := i + 1; j < rows; j++ {
			sim.SetSym(i, j, clamp(sim.At(i, j), -1, 1))
		}
	}
	return sim
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
