package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Priority labels a goal's importance.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Normalize maps free-form labels onto the known priorities; anything
// unrecognised is Low.
func (p Priority) Normalize() Priority {
	switch strings.ToLower(strings.TrimSpace(string(p))) {
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Goal is a user goal whose free-text description mentions skills.
type Goal struct {
	ID          int64    `json:"goal_id,omitempty"`
	Name        string   `json:"goal_name,omitempty"`
	Description string   `json:"goal_desc"`
	Priority    Priority `json:"priority,omitempty"`
}

// UnmarshalJSON accepts both "priority" and "goal_priority".
func (g *Goal) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           json.RawMessage `json:"goal_id"`
		Name         string          `json:"goal_name"`
		Description  string          `json:"goal_desc"`
		Priority     string          `json:"priority"`
		GoalPriority string          `json:"goal_priority"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = Goal{Name: raw.Name, Description: raw.Description}
	if id, ok := parseID(raw.ID); ok {
		g.ID = id
	}
	p := raw.Priority
	if p == "" {
		p = raw.GoalPriority
	}
	g.Priority = Priority(p).Normalize()
	return nil
}

// Goals is the goals section. Anything other than a list of goal objects
// decodes as no goals.
type Goals []Goal

// UnmarshalJSON tolerates a malformed goals section.
func (gs *Goals) UnmarshalJSON(data []byte) error {
	*gs = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil
	}
	for _, elem := range elems {
		var g Goal
		if err := json.Unmarshal(elem, &g); err != nil {
			continue
		}
		*gs = append(*gs, g)
	}
	return nil
}

// SignalBundle is the per-user evidence fetched from upstream. Every section
// is optional; a missing section contributes nothing.
type SignalBundle struct {
	Skills       SkillSection `json:"skills"`
	Certificates SkillSection `json:"certificates"`
	Positions    SkillSection `json:"positions"`
	Goals        Goals        `json:"goals"`
}

// IsEmpty reports whether the bundle carries no evidence in any section,
// which upstream uses to signal an unknown user.
func (b *SignalBundle) IsEmpty() bool {
	if b == nil {
		return true
	}
	return b.Skills.IsEmpty() && b.Certificates.IsEmpty() &&
		b.Positions.IsEmpty() && len(b.Goals) == 0
}

// HeldIDs returns the ids of items of the given kind the user already holds.
func (b *SignalBundle) HeldIDs(kind ItemKind) []int64 {
	if b == nil {
		return nil
	}
	switch kind {
	case KindCertificates:
		return b.Certificates.Held()
	case KindPositions:
		return b.Positions.Held()
	default:
		return nil
	}
}

// ExplicitSkillIDs returns the deduplicated skill ids the user states
// directly in the skills, certificates and positions sections, in first-seen
// order. Goal text is not included.
func (b *SignalBundle) ExplicitSkillIDs() []int64 {
	if b == nil {
		return nil
	}
	seen := make(map[int64]struct{})
	var out []int64
	for _, sec := range []SkillSection{b.Skills, b.Certificates, b.Positions} {
		for _, id := range sec.Skills() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
