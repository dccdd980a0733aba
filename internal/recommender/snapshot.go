package recommender

import (
	"time"

	"github.com/jonathan/skill-recommender/internal/features"
	"github.com/jonathan/skill-recommender/internal/ranking"
	"github.com/jonathan/skill-recommender/internal/selection"
	"github.com/jonathan/skill-recommender/internal/types"
)

// Options are the per-request recommendation inputs.
type Options struct {
	// ExcludeIDs never appear in the result, typically the items the user
	// already holds.
	ExcludeIDs []int64
	// ExistingProviders earn the kind's provider bonus.
	ExistingProviders []int64
	Lambda            float64
	TopN              int
}

// Snapshot is one immutable trained generation. A request should take a
// single snapshot and use it throughout so the vector, the scores and the
// catalog join all agree.
type Snapshot struct {
	kind       Kind
	catalog    *types.Catalog
	model      *ranking.Model
	builder    *features.Builder
	generation uint64
	trainedAt  time.Time
}

// Kind returns the item kind the snapshot was trained for.
func (s *Snapshot) Kind() Kind { return s.kind }

// Catalog returns the catalog the snapshot was trained on.
func (s *Snapshot) Catalog() *types.Catalog { return s.catalog }

// Model returns the trained similarity model.
func (s *Snapshot) Model() *ranking.Model { return s.model }

// Generation increases by one with every successful Train.
func (s *Snapshot) Generation() uint64 { return s.generation }

// TrainedAt is when the snapshot was built.
func (s *Snapshot) TrainedAt() time.Time { return s.trainedAt }

// UserVector builds the user's query vector over this snapshot's skill index.
func (s *Snapshot) UserVector(bundle *types.SignalBundle) []float64 {
	return s.builder.UserVector(bundle, s.model.Index())
}

// Score returns the relevance of every trained item to vec, provider bonus
// included. The slice is indexed by model row.
func (s *Snapshot) Score(vec []float64, existingProviders []int64) []float64 {
	scores := s.model.Score(vec)
	if s.kind.UsesProviders() {
		s.model.ApplyProviderBonus(scores, existingProviders, s.kind.ProviderBonus)
	}
	return scores
}

// ProvidersOf returns the distinct providers of the given items.
func (s *Snapshot) ProvidersOf(itemIDs []int64) []int64 {
	if !s.kind.UsesProviders() {
		return nil
	}
	return s.model.ProvidersOf(itemIDs)
}

// Recommend scores vec against every item, drops excluded items and
// diversifies the rest with MMR. vec must come from UserVector on the same
// snapshot.
func (s *Snapshot) Recommend(vec []float64, opts Options) ([]types.Recommendation, error) {
	params := selection.Params{Lambda: opts.Lambda, TopN: opts.TopN}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	scores := s.Score(vec, opts.ExistingProviders)

	excluded := make(map[int64]struct{}, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		excluded[id] = struct{}{}
	}
	candidates := make([]int, 0, s.model.Len())
	for row := 0; row < s.model.Len(); row++ {
		if _, skip := excluded[s.model.ItemID(row)]; skip {
			continue
		}
		candidates = append(candidates, row)
	}

	picks := selection.SelectMMR(scores, s.model.ItemSimilarity(), candidates, params.Lambda, params.TopN)
	out := make([]types.Recommendation, len(picks))
	for i, p := range picks {
		out[i] = types.Recommendation{
			ItemID:          s.model.ItemID(p.Row),
			SimilarityScore: p.Relevance,
			MMRScore:        p.MMR,
		}
	}
	return out, nil
}
