// Package types provides type definitions for structured data used throughout the skill-recommender system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ItemKind names a recommendable catalog kind.
type ItemKind string

const (
	KindCertificates ItemKind = "certificates"
	KindPositions    ItemKind = "positions"
)

// Valid reports whether k is a known item kind.
func (k ItemKind) Valid() bool {
	return k == KindCertificates || k == KindPositions
}

// Skill is an atomic competence unit. Identity is the ID; the name is used
// for presentation and for goal-text extraction.
type Skill struct {
	ID   int64  `json:"skill_id"`
	Name string `json:"skill_name"`
}

// Item is a catalog entity (certificate or position) with its required skills.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Provider    *int64  `json:"provider,omitempty"` // certificates only
	SkillIDs    []int64 `json:"skill_ids"`

	// Certificate presentation fields, passed through to API responses.
	EstimatedTime string `json:"estimated_time,omitempty"`
	Level         string `json:"level,omitempty"`
}

// HasProvider reports whether the item is issued by a known provider.
func (it *Item) HasProvider() bool {
	return it.Provider != nil
}

// Catalog is everything needed to train one item kind: the items with their
// skill associations and the skill vocabulary used for goal-text matching.
type Catalog struct {
	Kind   ItemKind `json:"kind"`
	Items  []Item   `json:"items"`
	Skills []Skill  `json:"skills"`
}

// ItemByID returns the item with the given ID, or nil.
func (c *Catalog) ItemByID(id int64) *Item {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

// SkillNames maps skill IDs to display names.
func (c *Catalog) SkillNames() map[int64]string {
	names := make(map[int64]string, len(c.Skills))
	for _, s := range c.Skills {
		names[s.ID] = s.Name
	}
	return names
}
