package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/skill-recommender/internal/observability"
	"github.com/jonathan/skill-recommender/internal/schemas"
	"github.com/jonathan/skill-recommender/internal/types"
	"github.com/jonathan/skill-recommender/internal/upstream"
	schemafiles "github.com/jonathan/skill-recommender/schemas"
)

const testPassword = "cli-secret"

var dataRoutes = map[string]string{
	"/general/skills": `[{"skill_id": 1, "skill_name": "Go"}, {"skill_id": 2, "skill_name": "SQL"}, {"skill_id": 3, "skill_name": "Kafka"}]`,
	"/general/certificates": `[
		{"certificate_id": 10, "certificate_name": "Gopher", "certificate_desc": "Go basics", "provider": 7},
		{"certificate_id": 11, "certificate_name": "Gopher Pro", "certificate_desc": "More Go", "provider": 7,
		 "certificate_estimated_time": "12 hours", "certificate_level": "Advanced"},
		{"certificate_id": 12, "certificate_name": "Data", "certificate_desc": "SQL", "provider": 8}
	]`,
	"/general/certificates/10/skills": `[{"skill_id": 1, "skill_name": "Go"}]`,
	"/general/certificates/11/skills": `[{"skill_id": 1, "skill_name": "Go"}, {"skill_id": 3, "skill_name": "Kafka"}]`,
	"/general/certificates/12/skills": `[{"skill_id": 2, "skill_name": "SQL"}]`,
	"/ml-user-data/all_positions":     `[{"position_id": 5, "position_name": "Backend", "position_desc": "APIs"}]`,
	"/ml-user-data/position/5":        `[{"skill_id": 1, "skill_name": "Go"}, {"skill_id": 2, "skill_name": "SQL"}]`,

	"/ml-user-data/skills/42":       `{"skills_id": [1]}`,
	"/ml-user-data/certificates/42": `{"certificate_id": [10], "skills_id": [1]}`,
	"/ml-user-data/positions/42":    `[]`,
	"/ml-user-data/goals/42":        `[{"goal_name": "streaming", "goal_desc": "get better at Kafka", "priority": "High"}]`,

	"/ml-user-data/skills/9":       `{}`,
	"/ml-user-data/certificates/9": `{}`,
	"/ml-user-data/positions/9":    `[]`,
	"/ml-user-data/goals/9":        `[]`,
}

func startDataAPI(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(upstream.AdminPasswordHeader) != testPassword {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := dataRoutes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("UPSTREAM_URL", srv.URL)
	t.Setenv("UPSTREAM_ADMIN_PASSWORD", testPassword)
	t.Setenv("CATALOG_SOURCE", "upstream")
	t.Setenv("REDIS_ADDR", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestRecommendCommand_JSON(t *testing.T) {
	startDataAPI(t)

	out, err := execute(t, "recommend", "--kind", "certificates", "--user", "42", "--json")
	require.NoError(t, err)
	require.NoError(t, schemas.ValidateDocument(schemafiles.RecommendationResponse, []byte(out)))

	var resp types.RecommendationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(42), resp.UserID)
	assert.Equal(t, []string{"Go"}, resp.UserSkills)
	require.NotEmpty(t, resp.Recommendations)
	for _, it := range resp.Recommendations {
		assert.NotEqual(t, int64(10), it.ID, "held certificate must not be recommended")
	}
	// Same provider as the held certificate, plus the goal's skill.
	assert.Equal(t, int64(11), resp.Recommendations[0].ID)
}

func TestRecommendCommand_Summary(t *testing.T) {
	startDataAPI(t)

	out, err := execute(t, "recommend", "-k", "positions", "-u", "42", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "RECOMMENDED POSITIONS")
	assert.Contains(t, out, "Backend")
}

func TestRecommendCommand_UnknownUser(t *testing.T) {
	startDataAPI(t)

	_, err := execute(t, "recommend", "--user", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 9 not found")
}

func TestRecommendCommand_Flags(t *testing.T) {
	startDataAPI(t)

	_, err := execute(t, "recommend")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")

	_, err = execute(t, "recommend", "--user", "1", "--kind", "courses")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")

	_, err = execute(t, "recommend", "--user", "42", "--lambda", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Lambda")
}

func TestCatalogCommand_JSON(t *testing.T) {
	startDataAPI(t)

	out, err := execute(t, "catalog", "--json")
	require.NoError(t, err)

	var stats map[types.ItemKind]observability.CatalogStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Len(t, stats, 2)

	certs := stats[types.KindCertificates]
	assert.Equal(t, 3, certs.Items)
	assert.Equal(t, 4, certs.Links)
	assert.Equal(t, 2, certs.ProviderCounts[7])
	assert.Equal(t, 1, stats[types.KindPositions].Items)
}

func TestCatalogCommand_Summary(t *testing.T) {
	startDataAPI(t)

	out, err := execute(t, "catalog", "--kind", "positions")
	require.NoError(t, err)
	assert.Contains(t, out, "POSITIONS CATALOG")
	assert.NotContains(t, out, "CERTIFICATES CATALOG")
}

func TestLoad_RequiresUpstreamURL(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "")
	t.Setenv("CATALOG_SOURCE", "upstream")

	_, err := execute(t, "catalog")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream.url")
}
