package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// SectionVariant discriminates the two shapes a user signal section can take.
type SectionVariant int

const (
	// SectionEmpty means the section was absent or could not be read.
	SectionEmpty SectionVariant = iota
	// SectionExplicit is a mapping carrying a skills_id list (and held item ids).
	SectionExplicit
	// SectionRecords is a list of held records, each with nested skill references.
	SectionRecords
)

func (v SectionVariant) String() string {
	switch v {
	case SectionExplicit:
		return "explicit"
	case SectionRecords:
		return "records"
	default:
		return "empty"
	}
}

// HeldRecord is one certificate or position the user holds.
type HeldRecord struct {
	ID       int64   `json:"id"`
	SkillIDs []int64 `json:"skill_ids"`
}

// SkillSection is one of the skills, certificates or positions sections of a
// user signal bundle. The upstream service sends either a mapping such as
// {"certificate_id": [...], "skills_id": [...]} or a list of records; the
// shape is resolved once on decode.
type SkillSection struct {
	Variant  SectionVariant `json:"variant"`
	SkillIDs []int64        `json:"skills_id,omitempty"`
	HeldIDs  []int64        `json:"held_ids,omitempty"`
	Records  []HeldRecord   `json:"records,omitempty"`
}

// ExplicitSection builds a mapping-variant section.
func ExplicitSection(skillIDs []int64, heldIDs ...int64) SkillSection {
	return SkillSection{Variant: SectionExplicit, SkillIDs: skillIDs, HeldIDs: heldIDs}
}

// RecordSection builds a records-variant section.
func RecordSection(records ...HeldRecord) SkillSection {
	return SkillSection{Variant: SectionRecords, Records: records}
}

// Skills returns the section's skill evidence. An explicit section yields its
// skills_id list; a records section concatenates the nested skill lists of its
// records (duplicates are kept, they count as repeated evidence). Fields that
// do not belong to the variant are ignored.
func (s SkillSection) Skills() []int64 {
	switch s.Variant {
	case SectionExplicit:
		return s.SkillIDs
	case SectionRecords:
		var out []int64
		for _, rec := range s.Records {
			out = append(out, rec.SkillIDs...)
		}
		return out
	default:
		return nil
	}
}

// Held returns the IDs of the items the user already holds in this section.
func (s SkillSection) Held() []int64 {
	switch s.Variant {
	case SectionExplicit:
		return s.HeldIDs
	case SectionRecords:
		out := make([]int64, 0, len(s.Records))
		for _, rec := range s.Records {
			if rec.ID != 0 {
				out = append(out, rec.ID)
			}
		}
		return out
	default:
		return nil
	}
}

// IsEmpty reports whether the section carries no evidence at all.
func (s SkillSection) IsEmpty() bool {
	return len(s.Skills()) == 0 && len(s.Held()) == 0
}

// heldIDKeys are the keys under which upstream sends held item ids.
var heldIDKeys = []string{"certificate_id", "position_id", "id"}

// UnmarshalJSON resolves the section shape. Malformed input decodes as an
// empty section instead of failing the whole bundle.
func (s *SkillSection) UnmarshalJSON(data []byte) error {
	*s = SkillSection{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil
		}
		s.decodeMapping(fields)
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return nil
		}
		s.decodeList(elems)
	}
	return nil
}

func (s *SkillSection) decodeMapping(fields map[string]json.RawMessage) {
	// Our own encoding round-trips through the same keys.
	if raw, ok := fields["records"]; ok {
		var recs []HeldRecord
		if json.Unmarshal(raw, &recs) == nil && len(recs) > 0 {
			s.Variant = SectionRecords
			s.Records = recs
			return
		}
	}

	s.Variant = SectionExplicit
	if raw, ok := fields["skills_id"]; ok {
		s.SkillIDs = parseIDList(raw)
	}
	for _, key := range append([]string{"held_ids"}, heldIDKeys...) {
		if raw, ok := fields[key]; ok {
			s.HeldIDs = append(s.HeldIDs, parseIDList(raw)...)
		}
	}
}

func (s *SkillSection) decodeList(elems []json.RawMessage) {
	var bare []int64
	var records []HeldRecord

	for _, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 {
			continue
		}
		if elem[0] != '{' {
			if id, ok := parseID(elem); ok {
				bare = append(bare, id)
			}
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil {
			continue
		}

		// A {"skill_id": n} record is a skill reference, not a held item.
		if raw, ok := fields["skill_id"]; ok && !hasNestedSkills(fields) {
			if id, ok := parseID(raw); ok {
				bare = append(bare, id)
			}
			continue
		}

		rec := HeldRecord{}
		for _, key := range heldIDKeys {
			if raw, ok := fields[key]; ok {
				if id, ok := parseID(raw); ok {
					rec.ID = id
					break
				}
			}
		}
		for _, key := range []string{"skills_id", "skills", "skill_ids"} {
			if raw, ok := fields[key]; ok {
				rec.SkillIDs = append(rec.SkillIDs, parseIDList(raw)...)
			}
		}
		records = append(records, rec)
	}

	switch {
	case len(records) > 0:
		s.Variant = SectionRecords
		s.Records = records
		// Bare skill references mixed with records still count.
		s.SkillIDs = nil
		if len(bare) > 0 {
			s.Records = append(s.Records, HeldRecord{SkillIDs: bare})
		}
	case len(bare) > 0:
		s.Variant = SectionExplicit
		s.SkillIDs = bare
	}
}

func hasNestedSkills(fields map[string]json.RawMessage) bool {
	_, a := fields["skills"]
	_, b := fields["skills_id"]
	return a || b
}

// parseIDList accepts a list of numbers, numeric strings or {"skill_id": n}
// records, or a single scalar id.
func parseIDList(raw json.RawMessage) []int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] != '[' {
		if id, ok := parseID(raw); ok {
			return []int64{id}
		}
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	out := make([]int64, 0, len(elems))
	for _, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) > 0 && elem[0] == '{' {
			var ref struct {
				SkillID json.RawMessage `json:"skill_id"`
			}
			if json.Unmarshal(elem, &ref) == nil && ref.SkillID != nil {
				if id, ok := parseID(ref.SkillID); ok {
					out = append(out, id)
				}
			}
			continue
		}
		if id, ok := parseID(elem); ok {
			out = append(out, id)
		}
	}
	return out
}

// parseID reads a JSON number or numeric string as an integer id.
func parseID(raw json.RawMessage) (int64, bool) {
	text := strings.TrimSpace(string(raw))
	text = strings.Trim(text, `"`)
	if text == "" || text == "null" {
		return 0, false
	}
	if id, err := strconv.ParseInt(text, 10, 64); err == nil {
		return id, true
	}
	// Integral floats such as 3.0
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}
