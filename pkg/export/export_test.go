package export_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/pkg/export"
	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/trace"
)

func testTraces(t *testing.T) []*trace.Trace {
	t.Helper()

	a, err := trace.New("a.csv", []float64{0, 1}, []float64{1, 3})
	require.NoError(t, err)

	_, err = fit.Fit(fit.Line{}, a)
	require.NoError(t, err)

	b, err := trace.New("b.csv", []float64{0}, []float64{0.5})
	require.NoError(t, err)

	return []*trace.Trace{a, b}
}

func TestByFormat(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err error
		ext string
	}{
		"json": {ext: ".json"},
		"YAML": {ext: ".yaml"},
		"yml":  {ext: ".yaml"},
		"csv":  {ext: ".csv"},
		"xml":  {err: export.ErrUnknownFormat},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := export.ByFormat(name)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.ext, s.Ext())
		})
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, export.JSON{}.Serialize(&buf, testTraces(t)))

	var doc export.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	require.Len(t, doc.Traces, 2)
	require.Len(t, doc.Fits, 1)
	assert.Equal(t, "a.csv", doc.Fits[0].Name)
	assert.Equal(t, "line", doc.Fits[0].Model)
	assert.InDelta(t, 2.0, doc.Fits[0].Params[0].Value, 1e-12)
	assert.Nil(t, doc.Traces[1].YFit)
}

func TestYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, export.YAML{}.Serialize(&buf, testTraces(t)))

	assert.Contains(t, buf.String(), "traces:")
	assert.Contains(t, buf.String(), "name: a.csv")

	var doc export.Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Fits, 1)
	assert.InDelta(t, 1.0, doc.Fits[0].RSquared, 1e-12)
}

func TestCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, export.CSV{}.Serialize(&buf, testTraces(t)))

	want := strings.Join([]string{
		"name,x,y,y_fit",
		"a.csv,0,1,1",
		"a.csv,1,3,3",
		"b.csv,0,0.5,",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestParams(t *testing.T) {
	t.Parallel()

	results := []*fit.Result{{
		Name:     "a.csv",
		Model:    "line",
		Params:   []trace.Param{{Name: "slope", Value: 2}, {Name: "intercept", Value: 1}},
		RSquared: 1,
	}}

	var buf bytes.Buffer
	require.NoError(t, export.Params(&buf, results))
	assert.Equal(t, "a.csv\tline\tslope=2\tintercept=1\tr2=1\trmse=0\n", buf.String())
}
