package plot_test

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/pkg/ui/plot"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err    error
		series []plot.Series
		want   []string
	}{
		"single series": {
			series: []plot.Series{{Name: "a.csv", Y: []float64{0, 1, 2, 3}}},
			want:   []string{"a.csv", "3.00", "0.00"},
		},
		"many series": {
			series: []plot.Series{
				{Name: "a.csv", Y: []float64{0, 1, 2}},
				{Name: "b.csv", Y: []float64{2, 1, 0}},
			},
			want: []string{"a.csv", "b.csv"},
		},
		"skips non-finite series": {
			series: []plot.Series{
				{Name: "nan.csv", Y: []float64{math.NaN(), math.Inf(1)}},
				{Name: "ok.csv", Y: []float64{1, 2}},
			},
			want: []string{"ok.csv"},
		},
		"no series": {
			err: plot.ErrNoData,
		},
		"only empty series": {
			series: []plot.Series{{Name: "empty.csv"}},
			err:    plot.ErrNoData,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := plot.Render(plot.Options{Height: 5, Caption: "Traces"}, tc.series...)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)

				return
			}

			require.NoError(t, err)

			got = ansi.Strip(got)
			assert.Contains(t, got, "Traces")

			for _, s := range tc.want {
				assert.Contains(t, got, s)
			}

			assert.NotContains(t, got, "nan.csv")
		})
	}
}

func TestRows(t *testing.T) {
	t.Parallel()

	got, err := plot.Rows(plot.Options{Height: 4}, []string{"first"}, [][]float64{{1, 2}, {2, 1}})
	require.NoError(t, err)
	assert.Contains(t, ansi.Strip(got), "first")
}

func TestMessage(t *testing.T) {
	t.Parallel()

	got := plot.Message("There are no fits!", 40, 5)
	lines := strings.Split(got, "\n")

	require.Len(t, lines, 5)
	assert.Equal(t, strings.Repeat(" ", 11)+"There are no fits!", lines[2])
}
