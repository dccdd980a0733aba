// Package ranking holds the trained item similarity model: a TF-IDF weighted
// item×skill matrix, the derived item×item cosine similarity matrix and the
// per-row item metadata.
package ranking

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jonathan/skill-recommender/internal/features"
	"github.com/jonathan/skill-recommender/internal/skills"
	"github.com/jonathan/skill-recommender/internal/types"
)

// ErrNotTrainable is returned when a model is trained on an empty item set.
var ErrNotTrainable = errors.New("no items to train on")

// Model is an immutable trained similarity model. All fields are written
// once by Train; concurrent readers need no locking.
type Model struct {
	index     *skills.Index
	features  *mat.Dense    // items × skills, rows L2-normalised
	itemSim   *mat.SymDense // items × items cosine similarity
	ids       []int64
	providers []*int64
	rowOf     map[int64]int
}

// Train builds a model from items. Rows follow the order of items.
func Train(items []types.Item) (*Model, error) {
	if len(items) == 0 {
		return nil, ErrNotTrainable
	}

	index := skills.NewIndex(items)
	if index.Len() == 0 {
		return nil, fmt.Errorf("%w: %d items reference no skills", ErrNotTrainable, len(items))
	}

	presence := features.ItemMatrix(items, index)
	weighted := TFIDF(presence)

	m := &Model{
		index:     index,
		features:  weighted,
		itemSim:   CosineSimilarity(weighted),
		ids:       make([]int64, len(items)),
		providers: make([]*int64, len(items)),
		rowOf:     make(map[int64]int, len(items)),
	}
	for i, it := range items {
		m.ids[i] = it.ID
		if it.HasProvider() {
			p := *it.Provider
			m.providers[i] = &p
		}
		if _, dup := m.rowOf[it.ID]; !dup {
			m.rowOf[it.ID] = i
		}
	}
	return m, nil
}

// Index returns the skill index the model was trained on.
func (m *Model) Index() *skills.Index {
	return m.index
}

// Len returns the number of trained items.
func (m *Model) Len() int {
	return len(m.ids)
}

// ItemID returns the item id at a row.
func (m *Model) ItemID(row int) int64 {
	return m.ids[row]
}

// Row returns the row of an item id.
func (m *Model) Row(id int64) (int, bool) {
	row, ok := m.rowOf[id]
	return row, ok
}

// Provider returns the provider recorded for a row, if any.
func (m *Model) Provider(row int) (int64, bool) {
	p := m.providers[row]
	if p == nil {
		return 0, false
	}
	return *p, true
}

// ItemSimilarity exposes the item×item similarity matrix.
func (m *Model) ItemSimilarity() mat.Symmetric {
	return m.itemSim
}

// ProvidersOf returns the distinct providers of the given items, in the order
// first seen. Unknown items and items without a provider are skipped.
func (m *Model) ProvidersOf(itemIDs []int64) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, id := range itemIDs {
		row, ok := m.rowOf[id]
		if !ok {
			continue
		}
		p, ok := m.Provider(row)
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
