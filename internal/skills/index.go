// Package skills maps skill identifiers to vector columns and extracts skill
// mentions from free text.
package skills

import "github.com/jonathan/skill-recommender/internal/types"

// Index is a bijection between skill ids and dense zero-based column
// positions. It is built once per trained model and never mutated, so it is
// safe for concurrent readers.
type Index struct {
	column map[int64]int
}

// NewIndex builds an index over the union of all skills referenced by items.
// Columns are assigned in first-seen order over the item list, which keeps
// the layout stable for a given catalog.
func NewIndex(items []types.Item) *Index {
	idx := &Index{column: make(map[int64]int)}
	for _, it := range items {
		for _, id := range it.SkillIDs {
			if _, ok := idx.column[id]; ok {
				continue
			}
			idx.column[id] = len(idx.column)
		}
	}
	return idx
}

// Len returns the number of columns.
func (x *Index) Len() int {
	return len(x.column)
}

// Column returns the column for a skill id.
func (x *Index) Column(id int64) (int, bool) {
	col, ok := x.column[id]
	return col, ok
}
