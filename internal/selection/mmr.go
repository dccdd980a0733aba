package selection

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Selection is one pick of an MMR run.
type Selection struct {
	Row       int
	Relevance float64
	MMR       float64
}

// SelectMMR greedily picks up to topN rows from candidates. The first pick
// scores lambda·relevance; later picks score
//
//	lambda·relevance − (1−lambda)·max(itemSim[c, s] for s already selected)
//
// Ties go to the candidate that appears first in candidates. Fewer than topN
// selections are returned when candidates run out.
//
// The running maximum similarity of each candidate is updated against the
// newest pick only, so a run costs O(topN × len(candidates)).
func SelectMMR(relevance []float64, itemSim mat.Symmetric, candidates []int, lambda float64, topN int) []Selection {
	if topN <= 0 || len(candidates) == 0 {
		return nil
	}

	remaining := make([]int, len(candidates))
	copy(remaining, candidates)
	maxSim := make([]float64, len(remaining))

	limit := topN
	if limit > len(remaining) {
		limit = len(remaining)
	}
	selected := make([]Selection, 0, limit)

	for len(selected) < topN && len(remaining) > 0 {
		best := -1
		bestScore := math.Inf(-1)
		for i, row := range remaining {
			score := lambda * relevance[row]
			if len(selected) > 0 {
				score -= (1 - lambda) * maxSim[i]
			}
			if best < 0 || score > bestScore {
				best, bestScore = i, score
			}
		}

		picked := remaining[best]
		selected = append(selected, Selection{Row: picked, Relevance: relevance[picked], MMR: bestScore})

		remaining = append(remaining[:best], remaining[best+1:]...)
		maxSim = append(maxSim[:best], maxSim[best+1:]...)
		for i, row := range remaining {
			if s := itemSim.At(row, picked); len(selected) == 1 || s > maxSim[i] {
				maxSim[i] = s
			}
		}
	}
	return selected
}
