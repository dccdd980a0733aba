package skills

import (
	"strings"

	"github.com/jonathan/skill-recommender/internal/types"
)

// maxPhraseTokens is the longest run of tokens checked as a skill phrase.
const maxPhraseTokens = 3

// NameTable resolves lower-cased skill names to skill ids.
type NameTable struct {
	byName map[string]int64
}

// NewNameTable builds a lookup table from the skill vocabulary. Skills with a
// zero id or a blank name are skipped. When two skills share a name the last
// one wins.
func NewNameTable(vocabulary []types.Skill) *NameTable {
	t := &NameTable{byName: make(map[string]int64, len(vocabulary))}
	for _, s := range vocabulary {
		name := NormalizeName(s.Name)
		if s.ID == 0 || name == "" {
			continue
		}
		t.byName[name] = s.ID
	}
	return t
}

// NormalizeName lower-cases a skill name and collapses inner whitespace so it
// matches the token joining used by Extract.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Len returns the number of names in the table.
func (t *NameTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byName)
}

// Extract returns the distinct skill ids mentioned in text. Every contiguous
// run of 1, 2 and 3 whitespace-delimited tokens is checked against the table;
// longer phrases are never matched. Ids are returned in the order they are
// first found (all unigrams, then bigrams, then trigrams).
func (t *NameTable) Extract(text string) []int64 {
	if t == nil || len(t.byName) == 0 {
		return nil
	}
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return nil
	}

	seen := make(map[int64]struct{})
	var found []int64
	for n := 1; n <= maxPhraseTokens; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+n], " ")
			id, ok := t.byName[phrase]
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			found = append(found, id)
		}
	}
	return found
}
