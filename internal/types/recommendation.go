package types

// Recommendation is one ranked item produced by the recommender core.
// SimilarityScore is the relevance before diversification (including any
// provider bonus); MMRScore is the marginal-relevance value at selection
// time and may be negative.
type Recommendation struct {
	ItemID          int64   `json:"id"`
	SimilarityScore float64 `json:"similarity_score"`
	MMRScore        float64 `json:"mmr_score"`
}

// RecommendedItem is a recommendation joined against the catalog for
// presentation.
type RecommendedItem struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Provider         *int64   `json:"provider,omitempty"`
	Score            float64  `json:"score"`
	SimilarityScore  float64  `json:"similarity_score"`
	Skills           []string `json:"skills"`
	CoincidentSkills []string `json:"coincident_skills"`
	EstimatedTime    string   `json:"estimated_time,omitempty"`
	Level            string   `json:"level,omitempty"`
}

// RecommendationResponse is the payload returned for one user and item kind.
type RecommendationResponse struct {
	UserID          int64             `json:"user_id"`
	Kind            ItemKind          `json:"kind"`
	UserSkills      []string          `json:"user_skills"`
	Recommendations []RecommendedItem `json:"recommendations"`
}
