package recommender

import "github.com/jonathan/skill-recommender/internal/types"

// Response joins a result against the snapshot's catalog. UserSkills are the
// names of the skills the user states explicitly; each item lists its own
// skills and the ones it shares with the user. At most limit items are kept
// (limit <= 0 keeps all). The displayed score is the MMR score.
func (res *Result) Response(userID int64, bundle *types.SignalBundle, limit int) *types.RecommendationResponse {
	catalog := res.Snapshot.Catalog()
	names := catalog.SkillNames()

	explicit := bundle.ExplicitSkillIDs()
	userSet := make(map[int64]struct{}, len(explicit))
	for _, id := range explicit {
		userSet[id] = struct{}{}
	}

	resp := &types.RecommendationResponse{
		UserID:          userID,
		Kind:            res.Snapshot.Kind().Name,
		UserSkills:      namesOf(explicit, names),
		Recommendations: []types.RecommendedItem{},
	}

	recs := res.Recommendations
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	for _, rec := range recs {
		it := catalog.ItemByID(rec.ItemID)
		if it == nil {
			continue
		}
		item := types.RecommendedItem{
			ID:               it.ID,
			Name:             it.Name,
			Description:      it.Description,
			Provider:         it.Provider,
			Score:            rec.MMRScore,
			SimilarityScore:  rec.SimilarityScore,
			Skills:           namesOf(it.SkillIDs, names),
			CoincidentSkills: []string{},
			EstimatedTime:    it.EstimatedTime,
			Level:            it.Level,
		}
		seen := make(map[int64]struct{})
		for _, id := range it.SkillIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if _, ok := userSet[id]; !ok {
				continue
			}
			if n, ok := names[id]; ok {
				item.CoincidentSkills = append(item.CoincidentSkills, n)
			}
		}
		resp.Recommendations = append(resp.Recommendations, item)
	}
	return resp
}

// namesOf maps ids to names, skipping unknown ids and repeats. Never nil.
func namesOf(ids []int64, names map[int64]string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if n, ok := names[id]; ok {
			out = append(out, n)
		}
	}
	return out
}
