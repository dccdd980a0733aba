package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalBundle_UnmarshalUpstreamMappings(t *testing.T) {
	input := `{
		"skills": {"skills_id": [1, 2, 3]},
		"certificates": {"certificate_id": [10, 11], "skills_id": [2, 4, 4]},
		"positions": {"skills_id": [5]},
		"goals": [
			{"goal_id": 7, "goal_name": "Cloud", "goal_desc": "Learn AWS and Docker", "priority": "High"},
			{"goal_desc": "get better at java", "goal_priority": "medium"},
			{"goal_desc": "public speaking"}
		]
	}`

	var bundle SignalBundle
	require.NoError(t, json.Unmarshal([]byte(input), &bundle))

	assert.Equal(t, SectionExplicit, bundle.Skills.Variant)
	assert.Equal(t, []int64{1, 2, 3}, bundle.Skills.Skills())

	assert.Equal(t, []int64{2, 4, 4}, bundle.Certificates.Skills())
	assert.Equal(t, []int64{10, 11}, bundle.HeldIDs(KindCertificates))

	assert.Equal(t, []int64{5}, bundle.Positions.Skills())
	assert.Empty(t, bundle.HeldIDs(KindPositions))

	require.Len(t, bundle.Goals, 3)
	assert.Equal(t, int64(7), bundle.Goals[0].ID)
	assert.Equal(t, PriorityHigh, bundle.Goals[0].Priority)
	assert.Equal(t, PriorityMedium, bundle.Goals[1].Priority)
	assert.Equal(t, PriorityLow, bundle.Goals[2].Priority)
	assert.False(t, bundle.IsEmpty())
}

func TestSkillSection_UnmarshalRecordList(t *testing.T) {
	input := `[
		{"position_id": 3, "skills": [{"skill_id": 1}, {"skill_id": 2}]},
		{"position_id": 4, "skills": [2, "7"]}
	]`

	var sec SkillSection
	require.NoError(t, json.Unmarshal([]byte(input), &sec))

	assert.Equal(t, SectionRecords, sec.Variant)
	assert.Equal(t, []int64{1, 2, 2, 7}, sec.Skills())
	assert.Equal(t, []int64{3, 4}, sec.Held())
}

func TestSkillSection_UnmarshalSkillReferenceList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int64
	}{
		{name: "skill records", input: `[{"skill_id": 4}, {"skill_id": 9}]`, want: []int64{4, 9}},
		{name: "bare numbers", input: `[4, 9, 9]`, want: []int64{4, 9, 9}},
		{name: "numeric strings", input: `["4", "9"]`, want: []int64{4, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sec SkillSection
			require.NoError(t, json.Unmarshal([]byte(tt.input), &sec))
			assert.Equal(t, SectionExplicit, sec.Variant)
			assert.Equal(t, tt.want, sec.Skills())
			assert.Empty(t, sec.Held())
		})
	}
}

func TestSkillSection_VariantSelectsFields(t *testing.T) {
	tests := []struct {
		name       string
		sec        SkillSection
		wantSkills []int64
		wantHeld   []int64
	}{
		{
			name: "records ignore stray explicit lists",
			sec: SkillSection{
				Variant:  SectionRecords,
				SkillIDs: []int64{1},
				HeldIDs:  []int64{5},
				Records:  []HeldRecord{{ID: 2, SkillIDs: []int64{8, 9}}},
			},
			wantSkills: []int64{8, 9},
			wantHeld:   []int64{2},
		},
		{
			name: "explicit ignores stray records",
			sec: SkillSection{
				Variant:  SectionExplicit,
				SkillIDs: []int64{1},
				Records:  []HeldRecord{{ID: 2, SkillIDs: []int64{8}}},
			},
			wantSkills: []int64{1},
			wantHeld:   nil,
		},
		{
			name: "empty variant carries nothing",
			sec: SkillSection{
				SkillIDs: []int64{1},
				HeldIDs:  []int64{5},
				Records:  []HeldRecord{{ID: 2, SkillIDs: []int64{8}}},
			},
			wantSkills: nil,
			wantHeld:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSkills, tt.sec.Skills())
			assert.Equal(t, tt.wantHeld, tt.sec.Held())
		})
	}
	assert.True(t, SkillSection{SkillIDs: []int64{1}}.IsEmpty())
}

func TestSignalBundle_MalformedSectionsAreTolerated(t *testing.T) {
	input := `{
		"skills": "not a section",
		"certificates": 42,
		"positions": [null, true, {"position_id": "x"}],
		"goals": {"goal_desc": "not a list"}
	}`

	var bundle SignalBundle
	require.NoError(t, json.Unmarshal([]byte(input), &bundle))

	assert.Empty(t, bundle.Skills.Skills())
	assert.Empty(t, bundle.Certificates.Skills())
	assert.Empty(t, bundle.Positions.Skills())
	assert.Empty(t, bundle.Goals)
	assert.True(t, bundle.IsEmpty())
}

func TestSignalBundle_MissingSectionsAreEmpty(t *testing.T) {
	var bundle SignalBundle
	require.NoError(t, json.Unmarshal([]byte(`{"skills": {"skills_id": []}}`), &bundle))

	assert.Equal(t, SectionEmpty, bundle.Positions.Variant)
	assert.True(t, bundle.IsEmpty())

	var nilBundle *SignalBundle
	assert.True(t, nilBundle.IsEmpty())
	assert.Nil(t, nilBundle.ExplicitSkillIDs())
}

func TestSignalBundle_ExplicitSkillIDsDeduplicates(t *testing.T) {
	bundle := SignalBundle{
		Skills:       ExplicitSection([]int64{3, 1}),
		Certificates: ExplicitSection([]int64{1, 5}, 100),
		Positions:    RecordSection(HeldRecord{ID: 9, SkillIDs: []int64{5, 6}}),
	}

	assert.Equal(t, []int64{3, 1, 5, 6}, bundle.ExplicitSkillIDs())
	assert.Equal(t, []int64{100}, bundle.HeldIDs(KindCertificates))
	assert.Equal(t, []int64{9}, bundle.HeldIDs(KindPositions))
}

func TestSkillSection_RoundTrip(t *testing.T) {
	bundle := SignalBundle{
		Skills:    ExplicitSection([]int64{1, 2}),
		Positions: RecordSection(HeldRecord{ID: 4, SkillIDs: []int64{3}}),
		Goals:     Goals{{Description: "learn go", Priority: PriorityHigh}},
	}

	data, err := json.Marshal(bundle)
	require.NoError(t, err)

	var decoded SignalBundle
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, bundle.Skills.Skills(), decoded.Skills.Skills())
	assert.Equal(t, SectionRecords, decoded.Positions.Variant)
	assert.Equal(t, []int64{4}, decoded.Positions.Held())
	assert.Equal(t, PriorityHigh, decoded.Goals[0].Priority)
}

func TestPriority_Normalize(t *testing.T) {
	assert.Equal(t, PriorityHigh, Priority("high").Normalize())
	assert.Equal(t, PriorityMedium, Priority(" Medium ").Normalize())
	assert.Equal(t, PriorityLow, Priority("urgent").Normalize())
	assert.Equal(t, PriorityLow, Priority("").Normalize())
}

func TestCatalog_Lookups(t *testing.T) {
	provider := int64(3)
	cat := Catalog{
		Kind:   KindCertificates,
		Items:  []Item{{ID: 1, Name: "AWS SA", Provider: &provider}, {ID: 2, Name: "PMP"}},
		Skills: []Skill{{ID: 10, Name: "AWS"}},
	}

	require.NotNil(t, cat.ItemByID(1))
	assert.True(t, cat.ItemByID(1).HasProvider())
	assert.False(t, cat.ItemByID(2).HasProvider())
	assert.Nil(t, cat.ItemByID(99))
	assert.Equal(t, "AWS", cat.SkillNames()[10])
	assert.True(t, KindPositions.Valid())
	assert.False(t, ItemKind("courses").Valid())
}
