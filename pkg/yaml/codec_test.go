package yaml_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/pkg/yaml"
)

type fitDoc struct {
	Model  string             `yaml:"model"`
	Params map[string]float64 `yaml:"params,omitempty"`
	Names  []string           `yaml:"names,omitempty"`
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	got, err := yaml.Marshal(fitDoc{
		Model: "line",
		Names: []string{"a.csv", "b.csv"},
	})
	require.NoError(t, err)
	assert.Equal(t, "model: line\nnames:\n  - a.csv\n  - b.csv\n", string(got))
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		want    fitDoc
		wantErr bool
	}{
		"valid": {
			input: "model: poly2\nparams:\n  a: 1.5\n",
			want:  fitDoc{Model: "poly2", Params: map[string]float64{"a": 1.5}},
		},
		"syntax error": {
			input:   "model: [poly2\n",
			wantErr: true,
		},
		"type error": {
			input:   "names: line\n",
			wantErr: true,
		},
		"duplicate key": {
			input:   "model: line\nmodel: poly2\n",
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got fitDoc

			err := yaml.Unmarshal([]byte(tc.input), &got)
			if tc.wantErr {
				var yamlErr *yaml.Error
				require.ErrorAs(t, err, &yamlErr)
				assert.NotNil(t, yamlErr.Token)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncoder_MultipleDocuments(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	require.NoError(t, enc.Encode(fitDoc{Model: "line"}))
	require.NoError(t, enc.Encode(fitDoc{Model: "poly3"}))
	require.NoError(t, enc.Close())

	dec := yaml.NewDecoder(&buf)

	var first, second fitDoc
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, "line", first.Model)
	assert.Equal(t, "poly3", second.Model)
}
