package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/skill-recommender/internal/types"
)

func TestAttachSkills(t *testing.T) {
	items := []types.Item{{ID: 1}, {ID: 2, SkillIDs: []int64{99}}, {ID: 3}}
	links := []ItemSkill{
		{ItemID: 1, SkillID: 5},
		{ItemID: 2, SkillID: 7},
		{ItemID: 1, SkillID: 4},
		{ItemID: 1, SkillID: 5},
		{ItemID: 42, SkillID: 1},
	}

	out := AttachSkills(items, links)

	assert.Equal(t, []int64{5, 4}, out[0].SkillIDs)
	assert.Equal(t, []int64{7}, out[1].SkillIDs, "stale skill ids are replaced")
	assert.Nil(t, out[2].SkillIDs)
}

func TestAttachSkills_Empty(t *testing.T) {
	assert.Empty(t, AttachSkills(nil, []ItemSkill{{ItemID: 1, SkillID: 1}}))
}
