package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/skill-recommender/internal/types"
)

// Sections of the per-user data API, in the order they are reported.
var bundleSections = []string{"skills", "certificates", "positions", "goals"}

// UserBundle fetches every section of a user's signal bundle concurrently.
// A section that fails to load is logged and left empty, so it contributes
// no evidence. If every section fails the call returns ErrNoUserData wrapped
// around the last failure.
func (c *Client) UserBundle(ctx context.Context, userID int64) (*types.SignalBundle, error) {
	bundle := &types.SignalBundle{}
	raw := make([]json.RawMessage, len(bundleSections))
	errs := make([]error, len(bundleSections))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	for i, section := range bundleSections {
		g.Go(func() error {
			path := fmt.Sprintf("/ml-user-data/%s/%d", section, userID)
			if err := c.getJSON(gctx, "user_"+section, path, &raw[i]); err != nil {
				errs[i] = err
				failed.Add(1)
				c.logger.Warn().Err(err).Int64("user_id", userID).Str("section", section).Msg("user data section unavailable")
			}
			// Section failures never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if int(failed.Load()) == len(bundleSections) {
		return nil, fmt.Errorf("%w: %w", ErrNoUserData, errs[len(errs)-1])
	}

	// Decoding is lenient and never fails; malformed sections come back empty.
	targets := []json.Unmarshaler{&bundle.Skills, &bundle.Certificates, &bundle.Positions, &bundle.Goals}
	for i, msg := range raw {
		if len(msg) == 0 {
			continue
		}
		_ = targets[i].UnmarshalJSON(msg)
	}
	return bundle, nil
}
