package yaml_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/pkg/yaml"
)

type schemaSample struct {
	Limit *int   `json:"limit,omitempty" jsonschema:"title=Limit,minimum=1"`
	Name  string `json:"name"            jsonschema:"title=Name"`
	Mode  string `json:"mode,omitempty"  jsonschema:"enum=fast,enum=slow"`
}

func TestSchemaGenerator_Generate(t *testing.T) {
	t.Parallel()

	b, err := yaml.NewSchemaGenerator(&schemaSample{}, yaml.WithSchemaID("https://example.com/sample.json")).Generate()
	require.NoError(t, err)

	var s struct {
		Defs map[string]struct {
			Properties map[string]struct {
				Title   string  `json:"title"`
				Minimum float64 `json:"minimum"`
				Enum    []any   `json:"enum"`
			} `json:"properties"`
			Required []string `json:"required"`
		} `json:"$defs"`
		ID string `json:"$id"`
	}
	require.NoError(t, json.Unmarshal(b, &s))

	assert.Equal(t, "https://example.com/sample.json", s.ID)

	def, ok := s.Defs["schemaSample"]
	require.True(t, ok)
	assert.Equal(t, "Limit", def.Properties["limit"].Title)
	assert.InDelta(t, 1.0, def.Properties["limit"].Minimum, 0)
	assert.Equal(t, []any{"fast", "slow"}, def.Properties["mode"].Enum)
	assert.Empty(t, def.Required)

	// The generated schema validates documents of the same type.
	v, err := yaml.NewValidator("/sample.json", b)
	require.NoError(t, err)
	require.NoError(t, v.Validate(map[string]any{"name": "a", "limit": 2}))
	require.Error(t, v.Validate(map[string]any{"name": "a", "limit": 0}))
}
