package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/skill-recommender/internal/types"
)

const testPassword = "s3cret"

// dataAPI is a fake data API. Routes map to fixed JSON bodies; a route
// mapped to an integer status answers with that status instead.
type dataAPI struct {
	routes map[string]any
	hits   atomic.Int32
}

func (d *dataAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.hits.Add(1)
	if r.Header.Get(AdminPasswordHeader) != testPassword {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	v, ok := d.routes[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch body := v.(type) {
	case int:
		w.WriteHeader(body)
	case string:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, api *dataAPI, mutate ...func(*Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	opts := DefaultOptions()
	opts.BaseURL = srv.URL
	opts.AdminPassword = testPassword
	for _, m := range mutate {
		m(opts)
	}
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c
}

type countingObserver struct {
	calls  atomic.Int32
	errors atomic.Int32
}

func (o *countingObserver) ObserveUpstream(_ string, _ time.Duration, err error) {
	o.calls.Add(1)
	if err != nil {
		o.errors.Add(1)
	}
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(&Options{BaseURL: "not a url"})
	var ue *Error
	assert.ErrorAs(t, err, &ue)
}

func TestUserBundle_AllSections(t *testing.T) {
	api := &dataAPI{routes: map[string]any{
		"/ml-user-data/skills/42":       `{"skills_id": [1, 2]}`,
		"/ml-user-data/certificates/42": `{"certificate_id": [10], "skills_id": [3]}`,
		"/ml-user-data/positions/42":    `{"position_id": [20, 21], "skills_id": [4, 4]}`,
		"/ml-user-data/goals/42":        `[{"goal_id": 1, "goal_name": "cloud", "goal_desc": "learn aws", "priority": "High"}]`,
	}}
	c := newTestClient(t, api)

	bundle, err := c.UserBundle(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, bundle.Skills.Skills())
	assert.Equal(t, []int64{10}, bundle.HeldIDs(types.KindCertificates))
	assert.Equal(t, []int64{20, 21}, bundle.HeldIDs(types.KindPositions))
	assert.Equal(t, []int64{4, 4}, bundle.Positions.Skills())
	require.Len(t, bundle.Goals, 1)
	assert.Equal(t, types.PriorityHigh, bundle.Goals[0].Priority)
	assert.Equal(t, "learn aws", bundle.Goals[0].Description)
}

func TestUserBundle_FailedSectionIsOmitted(t *testing.T) {
	api := &dataAPI{routes: map[string]any{
		"/ml-user-data/skills/7":       `{"skills_id": [5]}`,
		"/ml-user-data/certificates/7": http.StatusInternalServerError,
		"/ml-user-data/positions/7":    `not json`,
		"/ml-user-data/goals/7":        `[]`,
	}}
	obs := &countingObserver{}
	c := newTestClient(t, api)
	c.observer = obs

	bundle, err := c.UserBundle(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, bundle.Skills.Skills())
	assert.True(t, bundle.Certificates.IsEmpty())
	assert.True(t, bundle.Positions.IsEmpty())

	assert.Equal(t, int32(4), obs.calls.Load())
	assert.Equal(t, int32(2), obs.errors.Load())
}

func TestUserBundle_UnknownUserIsEmpty(t *testing.T) {
	api := &dataAPI{routes: map[string]any{
		"/ml-user-data/skills/9":       `{}`,
		"/ml-user-data/certificates/9": `{"skills_id": []}`,
		"/ml-user-data/positions/9":    `[]`,
		"/ml-user-data/goals/9":        `[]`,
	}}
	c := newTestClient(t, api)

	bundle, err := c.UserBundle(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, bundle.IsEmpty())
}

func TestUserBundle_AllSectionsFail(t *testing.T) {
	c := newTestClient(t, &dataAPI{routes: map[string]any{}})

	_, err := c.UserBundle(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoUserData)
	assert.True(t, IsNotFound(err))
}

func TestUserBundle_ContextCanceled(t *testing.T) {
	c := newTestClient(t, &dataAPI{routes: map[string]any{}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.UserBundle(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadCatalog_Certificates(t *testing.T) {
	api := &dataAPI{routes: map[string]any{
		"/general/skills": `[{"skill_id": 1, "skill_name": "Go"}, {"skill_id": 2, "skill_name": "SQL"}]`,
		"/general/certificates": `[
			{"certificate_id": 10, "certificate_name": "Gopher", "certificate_desc": "d", "provider": 3,
			 "certificate_estimated_time": 40, "certificate_level": "Advanced"},
			{"certificate_id": 11, "certificate_name": "DBA", "certificate_desc": "e", "provider": null,
			 "certificate_estimated_time": "2 weeks", "certificate_level": null}
		]`,
		"/general/certificates/10/skills": `[{"skill_id": 1, "skill_name": "Go"}]`,
		"/general/certificates/11/skills": `[{"skill_id": 2, "skill_name": "SQL"}, {"skill_id": 1, "skill_name": "Go"}]`,
	}}
	c := newTestClient(t, api)

	cat, err := c.LoadCatalog(context.Background(), types.KindCertificates)
	require.NoError(t, err)

	assert.Equal(t, types.KindCertificates, cat.Kind)
	assert.Len(t, cat.Skills, 2)
	require.Len(t, cat.Items, 2)

	gopher := cat.ItemByID(10)
	require.NotNil(t, gopher)
	require.NotNil(t, gopher.Provider)
	assert.Equal(t, int64(3), *gopher.Provider)
	assert.Equal(t, "40", gopher.EstimatedTime)
	assert.Equal(t, "Advanced", gopher.Level)
	assert.Equal(t, []int64{1}, gopher.SkillIDs)

	dba := cat.ItemByID(11)
	require.NotNil(t, dba)
	assert.Nil(t, dba.Provider)
	assert.Equal(t, "2 weeks", dba.EstimatedTime)
	assert.Empty(t, dba.Level)
	assert.Equal(t, []int64{2, 1}, dba.SkillIDs)
}

func TestLoadCatalog_Positions(t *testing.T) {
	api := &dataAPI{routes: map[string]any{
		"/general/skills":             `[{"skill_id": 1, "skill_name": "Go"}]`,
		"/ml-user-data/all_positions": `[{"position_id": 5, "position_name": "Backend", "position_desc": "APIs"}]`,
		"/ml-user-data/position/5":    `[{"skill_id": 1, "skill_name": "Go"}]`,
	}}
	c := newTestClient(t, api, func(o *Options) { o.Concurrency = 1 })

	cat, err := c.LoadCatalog(context.Background(), types.KindPositions)
	require.NoError(t, err)
	require.Len(t, cat.Items, 1)
	assert.Equal(t, "Backend", cat.Items[0].Name)
	assert.Equal(t, []int64{1}, cat.Items[0].SkillIDs)
}

func TestLoadCatalog_ItemSkillFailureKeepsItem(t *testing.T) {
	api := &dataAPI{routes: map[string]any{
		"/general/skills":                `[{"skill_id": 1, "skill_name": "Go"}]`,
		"/general/certificates":          `[{"certificate_id": 1}, {"certificate_id": 2}]`,
		"/general/certificates/1/skills": `[{"skill_id": 1, "skill_name": "Go"}]`,
		"/general/certificates/2/skills": http.StatusInternalServerError,
	}}
	c := newTestClient(t, api)

	cat, err := c.LoadCatalog(context.Background(), types.KindCertificates)
	require.NoError(t, err)
	require.Len(t, cat.Items, 2)
	assert.Equal(t, []int64{1}, cat.ItemByID(1).SkillIDs)
	assert.Empty(t, cat.ItemByID(2).SkillIDs)
}

func TestLoadCatalog_OpenBreakerAborts(t *testing.T) {
	api := &dataAPI{routes: map[string]any{
		"/general/skills":             `[]`,
		"/ml-user-data/all_positions": `[{"position_id": 5}, {"position_id": 6}, {"position_id": 7}]`,
		"/ml-user-data/position/5":    `[]`,
		"/ml-user-data/position/6":    http.StatusInternalServerError,
		"/ml-user-data/position/7":    `[]`,
	}}
	c := newTestClient(t, api, func(o *Options) {
		o.BreakerFailures = 1
		o.Concurrency = 1
	})

	_, err := c.LoadCatalog(context.Background(), types.KindPositions)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestLoadCatalog_CanceledContextAborts(t *testing.T) {
	api := &dataAPI{routes: map[string]any{
		"/general/skills":             `[]`,
		"/ml-user-data/all_positions": `[{"position_id": 5}]`,
		"/ml-user-data/position/5":    `[]`,
	}}
	c := newTestClient(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.LoadCatalog(ctx, types.KindPositions)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadCatalog_UnknownKind(t *testing.T) {
	c := newTestClient(t, &dataAPI{routes: map[string]any{"/general/skills": `[]`}})
	_, err := c.LoadCatalog(context.Background(), types.ItemKind("courses"))
	assert.Error(t, err)
}

func TestClient_SendsAdminPassword(t *testing.T) {
	api := &dataAPI{routes: map[string]any{"/general/skills": `[]`}}
	c := newTestClient(t, api, func(o *Options) { o.AdminPassword = "wrong" })

	_, err := c.Skills(context.Background())
	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	api := &dataAPI{routes: map[string]any{"/general/skills": http.StatusServiceUnavailable}}
	c := newTestClient(t, api, func(o *Options) {
		o.BreakerFailures = 2
		o.BreakerTimeout = time.Hour
	})

	for i := 0; i < 2; i++ {
		_, err := c.Skills(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	_, err := c.Skills(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), api.hits.Load())
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	api := &dataAPI{routes: map[string]any{}}
	c := newTestClient(t, api, func(o *Options) { o.BreakerFailures = 1 })

	for i := 0; i < 3; i++ {
		_, err := c.Skills(context.Background())
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestSkippable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &Error{Endpoint: "position_skills", StatusCode: http.StatusInternalServerError}, true},
		{"wrapped not found", fmt.Errorf("skills: %w", &Error{StatusCode: http.StatusNotFound}), true},
		{"transport failure", &Error{Message: "HTTP request failed", Cause: errors.New("connection refused")}, true},
		{"open breaker", &Error{Message: "circuit breaker rejected request", Cause: gobreaker.ErrOpenState}, false},
		{"half-open limit", &Error{Cause: gobreaker.ErrTooManyRequests}, false},
		{"canceled", &Error{Message: "HTTP request failed", Cause: context.Canceled}, false},
		{"deadline", &Error{Cause: context.DeadlineExceeded}, false},
		{"not an upstream error", errors.New("decode"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, skippable(tt.err))
		})
	}
}
