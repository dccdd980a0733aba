package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/skill-recommender/internal/types"
)

type certificateListing struct {
	ID            int64      `json:"certificate_id"`
	Name          string     `json:"certificate_name"`
	Description   string     `json:"certificate_desc"`
	Provider      *int64     `json:"provider"`
	EstimatedTime flexString `json:"certificate_estimated_time"`
	Level         flexString `json:"certificate_level"`
}

type positionListing struct {
	ID          int64  `json:"position_id"`
	Name        string `json:"position_name"`
	Description string `json:"position_desc"`
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Skills returns the full skill vocabulary.
func (c *Client) Skills(ctx context.Context) ([]types.Skill, error) {
	var out []types.Skill
	if err := c.getJSON(ctx, "skills", "/general/skills", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadCatalog loads the listing of one item kind together with the skills
// of every item and the skill vocabulary. Per-item skill look-ups run with
// bounded concurrency; any failure aborts the load.
func (c *Client) LoadCatalog(ctx context.Context, kind types.ItemKind) (*types.Catalog, error) {
	var items []types.Item
	var vocab []types.Skill

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vocab, err = c.Skills(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = c.listItems(gctx, kind)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := c.attachSkills(ctx, kind, items); err != nil {
		return nil, err
	}

	c.logger.Info().Str("kind", string(kind)).Int("items", len(items)).Int("skills", len(vocab)).Msg("catalog loaded")
	return &types.Catalog{Kind: kind, Items: items, Skills: vocab}, nil
}

func (c *Client) listItems(ctx context.Context, kind types.ItemKind) ([]types.Item, error) {
	switch kind {
	case types.KindCertificates:
		var listing []certificateListing
		if err := c.getJSON(ctx, "certificates", "/general/certificates", &listing); err != nil {
			return nil, err
		}
		items := make([]types.Item, len(listing))
		for i, l := range listing {
			items[i] = types.Item{
				ID:            l.ID,
				Name:          l.Name,
				Description:   l.Description,
				Provider:      l.Provider,
				EstimatedTime: string(l.EstimatedTime),
				Level:         string(l.Level),
			}
		}
		return items, nil

	case types.KindPositions:
		var listing []positionListing
		if err := c.getJSON(ctx, "positions", "/ml-user-data/all_positions", &listing); err != nil {
			return nil, err
		}
		items := make([]types.Item, len(listing))
		for i, l := range listing {
			items[i] = types.Item{ID: l.ID, Name: l.Name, Description: l.Description}
		}
		return items, nil

	default:
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
}

// ItemSkills returns the skills associated with one item.
func (c *Client) ItemSkills(ctx context.Context, kind types.ItemKind, itemID int64) ([]types.Skill, error) {
	id := strconv.FormatInt(itemID, 10)
	var out []types.Skill
	var err error
	switch kind {
	case types.KindCertificates:
		err = c.getJSON(ctx, "certificate_skills", "/general/certificates/"+id+"/skills", &out)
	case types.KindPositions:
		err = c.getJSON(ctx, "position_skills", "/ml-user-data/position/"+id, &out)
	default:
		err = fmt.Errorf("unknown item kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) attachSkills(ctx context.Context, kind types.ItemKind, items []types.Item) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i := range items {
		g.Go(func() error {
			skills, err := c.ItemSkills(gctx, kind, items[i].ID)
			if err != nil {
				if skippable(err) {
					c.logger.Warn().Err(err).
						Str("kind", string(kind)).
						Int64("item_id", items[i].ID).
						Msg("item skills unavailable, keeping item without skills")
					items[i].SkillIDs = nil
					return nil
				}
				return fmt.Errorf("skills of %s %d: %w", kind, items[i].ID, err)
			}
			ids := make([]int64, 0, len(skills))
			for _, s := range skills {
				ids = append(ids, s.ID)
			}
			items[i].SkillIDs = ids
			return nil
		})
	}
	return g.Wait()
}
