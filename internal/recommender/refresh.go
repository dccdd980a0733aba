package recommender

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/skill-recommender/internal/types"
)

// CatalogLoader supplies catalogs to train on.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, kind types.ItemKind) (*types.Catalog, error)
}

// Invalidator is implemented by loaders that cache catalogs.
type Invalidator interface {
	Invalidate(ctx context.Context, kind types.ItemKind) error
}

// Refresh loads a catalog for every recommender and retrains it. Kinds are
// refreshed in parallel and independently: one failing kind keeps its
// previous snapshot without affecting the others. With fresh set, a caching
// loader is invalidated first so the catalog comes from the source.
func Refresh(ctx context.Context, loader CatalogLoader, fresh bool, recs ...*Recommender) error {
	errs := make([]error, len(recs))
	var g errgroup.Group
	for i, rec := range recs {
		g.Go(func() error {
			errs[i] = refreshOne(ctx, loader, fresh, rec)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func refreshOne(ctx context.Context, loader CatalogLoader, fresh bool, rec *Recommender) error {
	kind := rec.Kind().Name
	if inv, ok := loader.(Invalidator); ok && fresh {
		if err := inv.Invalidate(ctx, kind); err != nil {
			rec.logger.Warn().Err(err).Msg("cache invalidation failed")
		}
	}
	catalog, err := loader.LoadCatalog(ctx, kind)
	if err != nil {
		return fmt.Errorf("load %s catalog: %w", kind, err)
	}
	return rec.Train(catalog)
}
