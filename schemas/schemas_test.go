package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestAllSchemaFiles_ValidJSONSchema(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			data, err := Load(name)
			require.NoError(t, err)

			var v any
			require.NoError(t, json.Unmarshal(data, &v), "schema should be valid JSON")

			_, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			assert.NoError(t, err, "schema should compile")
		})
	}
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("user_profile")
	assert.Error(t, err)
}
