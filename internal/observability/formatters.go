// Package observability provides logging setup and formatted output for the
// CLI's verbose mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/skill-recommender/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintUserSignals summarises what the recommender knows about a user.
// names maps skill ids to display names; unknown ids print as "#id".
func (p *Printer) PrintUserSignals(bundle *types.SignalBundle, names map[int64]string) {
	if bundle == nil {
		return
	}
	if bundle.IsEmpty() {
		p.printBox("USER SIGNALS", "No skills, certificates, positions or goals")
		return
	}

	label := func(id int64) string {
		if n, ok := names[id]; ok {
			return n
		}
		return fmt.Sprintf("#%d", id)
	}
	joined := func(ids []int64) string {
		parts := make([]string, 0, min(len(ids), maxItemsToShow))
		for _, id := range ids[:min(len(ids), maxItemsToShow)] {
			parts = append(parts, label(id))
		}
		s := strings.Join(parts, ", ")
		if len(ids) > maxItemsToShow {
			s += fmt.Sprintf(" +%d", len(ids)-maxItemsToShow)
		}
		return s
	}

	var sb strings.Builder
	sections := []struct {
		name    string
		section types.SkillSection
	}{
		{"Skills", bundle.Skills},
		{"Certificates", bundle.Certificates},
		{"Positions", bundle.Positions},
	}
	for _, s := range sections {
		ids := s.section.Skills()
		fmt.Fprintf(&sb, "%-13s %d skills, %d held\n", s.name+":", len(ids), len(s.section.Held()))
		if len(ids) > 0 {
			fmt.Fprintf(&sb, "  %s\n", joined(ids))
		}
	}

	if len(bundle.Goals) > 0 {
		sb.WriteString("\nGoals:\n")
		count := min(len(bundle.Goals), 3)
		for _, g := range bundle.Goals[:count] {
			text := g.Name
			if text == "" {
				text = g.Description
			}
			fmt.Fprintf(&sb, "  • [%s] %s\n", g.Priority.Normalize(), text)
		}
		if len(bundle.Goals) > 3 {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(bundle.Goals)-3)
		}
	}

	p.printBox("USER SIGNALS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecommendations outputs the ranked items with scores and the skills
// they share with the user.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRecommendations(resp *types.RecommendationResponse) {
	if resp == nil {
		return
	}
	title := "RECOMMENDED " + strings.ToUpper(string(resp.Kind))
	if len(resp.Recommendations) == 0 {
		p.printBox(title, fmt.Sprintf("No recommendations for user %d", resp.UserID))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "User %d, %d skills known\n\n", resp.UserID, len(resp.UserSkills))
	for i, rec := range resp.Recommendations {
		fmt.Fprintf(&sb, "#%d  %s\n", i+1, rec.Name)
		fmt.Fprintf(&sb, "    Score: %.3f (similarity %.3f)\n", rec.Score, rec.SimilarityScore)
		if len(rec.CoincidentSkills) > 0 {
			fmt.Fprintf(&sb, "    Shared: %s\n", strings.Join(rec.CoincidentSkills, ", "))
		}
		if rec.Level != "" || rec.EstimatedTime != "" {
			fmt.Fprintf(&sb, "    %s\n", strings.TrimSpace(rec.Level+" "+rec.EstimatedTime))
		}
		if i < len(resp.Recommendations)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(title, sb.String())
}

// CatalogStats describes the shape of a catalog's item-skill matrix.
type CatalogStats struct {
	Items          int           `json:"items"`
	Skills         int           `json:"skills"`
	IndexedSkills  int           `json:"indexed_skills"`
	Links          int           `json:"links"`
	EmptyItems     int           `json:"empty_items"`
	MeanSkills     float64       `json:"mean_skills"`
	Density        float64       `json:"density"`
	TopSkills      []SkillCount  `json:"top_skills"`
	ProviderCounts map[int64]int `json:"provider_counts,omitempty"`
}

// SkillCount is how many items reference a skill.
type SkillCount struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
}

// SummarizeCatalog computes CatalogStats. Duplicate skill links on one item
// count once.
func SummarizeCatalog(cat *types.Catalog) CatalogStats {
	st := CatalogStats{ProviderCounts: map[int64]int{}}
	if cat == nil {
		return st
	}
	names := cat.SkillNames()
	st.Items = len(cat.Items)
	st.Skills = len(cat.Skills)

	perSkill := map[int64]int{}
	for _, it := range cat.Items {
		seen := map[int64]bool{}
		for _, id := range it.SkillIDs {
			if !seen[id] {
				seen[id] = true
				perSkill[id]++
			}
		}
		if len(seen) == 0 {
			st.EmptyItems++
		}
		st.Links += len(seen)
		if it.HasProvider() {
			st.ProviderCounts[*it.Provider]++
		}
	}
	st.IndexedSkills = len(perSkill)
	if st.Items > 0 {
		st.MeanSkills = float64(st.Links) / float64(st.Items)
	}
	if st.Items > 0 && st.IndexedSkills > 0 {
		st.Density = float64(st.Links) / float64(st.Items*st.IndexedSkills)
	}

	for id, n := range perSkill {
		name, ok := names[id]
		if !ok {
			name = fmt.Sprintf("#%d", id)
		}
		st.TopSkills = append(st.TopSkills, SkillCount{Name: name, Items: n})
	}
	sort.Slice(st.TopSkills, func(i, j int) bool {
		if st.TopSkills[i].Items != st.TopSkills[j].Items {
			return st.TopSkills[i].Items > st.TopSkills[j].Items
		}
		return st.TopSkills[i].Name < st.TopSkills[j].Name
	})
	if len(st.TopSkills) > maxItemsToShow {
		st.TopSkills = st.TopSkills[:maxItemsToShow]
	}
	return st
}

// PrintCatalog outputs catalog statistics.
func (p *Printer) PrintCatalog(kind types.ItemKind, st CatalogStats) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Items:          %d (%d without skills)\n", st.Items, st.EmptyItems)
	fmt.Fprintf(&sb, "Skills:         %d known, %d indexed\n", st.Skills, st.IndexedSkills)
	fmt.Fprintf(&sb, "Links:          %d (%.2f per item)\n", st.Links, st.MeanSkills)
	fmt.Fprintf(&sb, "Density:        %.4f\n", st.Density)
	if len(st.ProviderCounts) > 0 {
		fmt.Fprintf(&sb, "Providers:      %d\n", len(st.ProviderCounts))
	}
	if len(st.TopSkills) > 0 {
		sb.WriteString("\nMost common skills:\n")
		for _, sc := range st.TopSkills {
			fmt.Fprintf(&sb, "  • %s (%d)\n", sc.Name, sc.Items)
		}
	}

	p.printBox(strings.ToUpper(string(kind))+" CATALOG", strings.TrimSuffix(sb.String(), "\n"))
}
