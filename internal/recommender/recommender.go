// Package recommender composes the feature builder, the similarity model and
// the MMR selector into a trainable recommender for one item kind.
package recommender

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/skill-recommender/internal/features"
	"github.com/jonathan/skill-recommender/internal/ranking"
	"github.com/jonathan/skill-recommender/internal/skills"
	"github.com/jonathan/skill-recommender/internal/types"
)

// ErrNotTrained is returned when recommendations are requested before the
// first successful Train.
var ErrNotTrained = errors.New("recommender not trained")

// ErrNotTrainable is returned when Train is given nothing to learn from.
var ErrNotTrainable = ranking.ErrNotTrainable

// Recorder receives training and request measurements. A nil Recorder is
// allowed.
type Recorder interface {
	ObserveTraining(kind string, items int, err error)
	ObserveRecommendation(kind string, elapsed time.Duration, results int)
}

// Recommender serves recommendations for one item kind from the latest
// trained snapshot. Readers never block: a retrain builds a complete new
// snapshot and swaps it in atomically.
type Recommender struct {
	kind     Kind
	weights  features.Weights
	logger   zerolog.Logger
	recorder Recorder

	trainMu    sync.Mutex
	current    atomic.Pointer[Snapshot]
	generation uint64
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) { r.logger = l }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Recommender) { r.recorder = rec }
}

// New creates an untrained recommender.
func New(kind Kind, weights features.Weights, opts ...Option) *Recommender {
	r := &Recommender{
		kind:    kind,
		weights: weights,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("kind", kind.String()).Logger()
	return r
}

// Kind returns the recommender's item kind.
func (r *Recommender) Kind() Kind {
	return r.kind
}

// Train builds a new snapshot from catalog and makes it current. On failure
// the previous snapshot, if any, stays in effect. Concurrent calls are
// serialised.
func (r *Recommender) Train(catalog *types.Catalog) error {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()

	start := time.Now()
	snap, err := r.build(catalog)
	items := 0
	if catalog != nil {
		items = len(catalog.Items)
	}
	if r.recorder != nil {
		r.recorder.ObserveTraining(r.kind.String(), items, err)
	}
	if err != nil {
		r.logger.Error().Err(err).Int("items", items).Msg("training failed, keeping previous model")
		return err
	}

	r.current.Store(snap)
	r.logger.Info().
		Uint64("generation", snap.generation).
		Int("items", snap.model.Len()).
		Int("skills", snap.model.Index().Len()).
		Dur("duration", time.Since(start)).
		Msg("model trained")
	return nil
}

func (r *Recommender) build(catalog *types.Catalog) (*Snapshot, error) {
	if catalog == nil {
		return nil, ErrNotTrainable
	}
	if catalog.Kind != "" && catalog.Kind != r.kind.Name {
		return nil, fmt.Errorf("catalog kind %q does not match recommender kind %q", catalog.Kind, r.kind.Name)
	}

	model, err := ranking.Train(catalog.Items)
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", r.kind, err)
	}

	r.generation++
	return &Snapshot{
		kind:       r.kind,
		catalog:    catalog,
		model:      model,
		builder:    features.NewBuilder(r.weights, skills.NewNameTable(catalog.Skills)),
		generation: r.generation,
		trainedAt:  time.Now(),
	}, nil
}

// Snapshot returns the current trained generation.
func (r *Recommender) Snapshot() (*Snapshot, error) {
	snap := r.current.Load()
	if snap == nil {
		return nil, ErrNotTrained
	}
	return snap, nil
}

// Result carries recommendations together with the snapshot that produced
// them so callers can join against the same catalog.
type Result struct {
	Snapshot        *Snapshot
	UserVector      []float64
	Recommendations []types.Recommendation
}

// Recommend builds the user's vector and returns diversified
// recommendations, all against one snapshot.
func (r *Recommender) Recommend(bundle *types.SignalBundle, opts Options) (*Result, error) {
	return r.recommend(bundle, func(*Snapshot) Options { return opts })
}

// RecommendFor applies the per-user request policy: the items the user
// already holds are excluded and, for kinds with providers, the providers of
// those items earn the bonus.
func (r *Recommender) RecommendFor(bundle *types.SignalBundle, lambda float64, topN int) (*Result, error) {
	return r.recommend(bundle, func(snap *Snapshot) Options {
		held := bundle.HeldIDs(r.kind.Name)
		return Options{
			ExcludeIDs:        held,
			ExistingProviders: snap.ProvidersOf(held),
			Lambda:            lambda,
			TopN:              topN,
		}
	})
}

func (r *Recommender) recommend(bundle *types.SignalBundle, options func(*Snapshot) Options) (*Result, error) {
	start := time.Now()
	snap, err := r.Snapshot()
	if err != nil {
		return nil, err
	}

	vec := snap.UserVector(bundle)
	recs, err := snap.Recommend(vec, options(snap))
	if err != nil {
		return nil, err
	}

	if r.recorder != nil {
		r.recorder.ObserveRecommendation(r.kind.String(), time.Since(start), len(recs))
	}
	return &Result{Snapshot: snap, UserVector: vec, Recommendations: recs}, nil
}

// Status summarises the current model for health reporting.
type Status struct {
	Kind       types.ItemKind `json:"kind"`
	Trained    bool           `json:"trained"`
	Generation uint64         `json:"generation"`
	TrainedAt  *time.Time     `json:"trained_at,omitempty"`
	Items      int            `json:"items"`
	Skills     int            `json:"skills"`
}

// Status reports the current model state.
func (r *Recommender) Status() Status {
	st := Status{Kind: r.kind.Name}
	snap := r.current.Load()
	if snap == nil {
		return st
	}
	at := snap.trainedAt
	st.Trained = true
	st.Generation = snap.generation
	st.TrainedAt = &at
	st.Items = snap.model.Len()
	st.Skills = snap.model.Index().Len()
	return st
}
