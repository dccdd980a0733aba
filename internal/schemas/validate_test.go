package schemas

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemafiles "github.com/jonathan/skill-recommender/schemas"
)

func TestValidateDocument_MalformedJSON(t *testing.T) {
	err := ValidateDocument(schemafiles.Config, []byte("{ invalid json }"))
	var le *SchemaLoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, schemafiles.Config, le.Path)
}

func TestValidateDocument_WrongType(t *testing.T) {
	err := ValidateDocument(schemafiles.Config, []byte(`{"server": {"port": "8080"}}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields(), "server.port")
	assert.Contains(t, err.Error(), "validation against "+schemafiles.Config+" failed")
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Schema: "config",
		Errors: []FieldError{
			{Field: "recommender.lambda", Message: "Must be less than or equal to 1"},
			{Field: "log_level", Message: "must be one of the following"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "validation against config failed")
	assert.Contains(t, msg, "1. recommender.lambda")
	assert.Contains(t, msg, "2. log_level")
}

func TestSchemaLoadError_Unwrap(t *testing.T) {
	cause := os.ErrNotExist
	err := &SchemaLoadError{Path: "x", Message: "boom", Cause: cause}
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "failed to load schema x: boom")
}

func TestValidateDocument_Config(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{name: "empty object", doc: `{}`},
		{name: "full", doc: `{
			"server": {"port": 8080, "allowed_origins": ["*"], "rate_limit": 5, "rate_burst": 10},
			"upstream": {"url": "http://api", "timeout_seconds": 5},
			"catalog_source": "upstream",
			"redis": {"addr": "localhost:6379", "ttl_seconds": 60},
			"recommender": {"lambda": 0.85, "weights": {"goal": 2, "priority": {"high": 2}}},
			"log_level": "debug"
		}`},
		{name: "unknown top-level key", doc: `{"lamda": 0.3}`, wantField: "(root)"},
		{name: "lambda out of range", doc: `{"recommender": {"lambda": 1.5}}`, wantField: "recommender.lambda"},
		{name: "bad source", doc: `{"catalog_source": "mongo"}`, wantField: "catalog_source"},
		{name: "negative weight", doc: `{"recommender": {"weights": {"goal": -1}}}`, wantField: "recommender.weights.goal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(schemafiles.Config, []byte(tt.doc))
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields(), tt.wantField)
		})
	}
}

func TestValidateDocument_UnknownSchema(t *testing.T) {
	err := ValidateDocument("nope", []byte(`{}`))
	var le *SchemaLoadError
	require.ErrorAs(t, err, &le)
}

func TestValidateDocument_RecommendationResponse(t *testing.T) {
	provider := int64(7)
	resp := map[string]any{
		"user_id":     42,
		"kind":        "certificates",
		"user_skills": []string{"Go"},
		"recommendations": []map[string]any{{
			"id": 1, "name": "Cert", "description": "", "provider": provider,
			"score": 0.4, "similarity_score": 0.5,
			"skills": []string{"Go"}, "coincident_skills": []string{"Go"},
		}},
	}
	doc, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NoError(t, ValidateDocument(schemafiles.RecommendationResponse, doc))

	resp["recommendations"] = []map[string]any{{"id": 1}}
	doc, err = json.Marshal(resp)
	require.NoError(t, err)
	assert.Error(t, ValidateDocument(schemafiles.RecommendationResponse, doc))
}

func TestEmbeddedSchemas_AreValidJSON(t *testing.T) {
	for _, name := range schemafiles.Names() {
		t.Run(name, func(t *testing.T) {
			data, err := schemafiles.Load(name)
			require.NoError(t, err)
			var v map[string]any
			require.NoError(t, json.Unmarshal(data, &v))
			assert.Contains(t, v, "$schema")
		})
	}
}
