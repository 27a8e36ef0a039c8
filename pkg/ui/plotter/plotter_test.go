package plotter_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/trace"
	"github.com/macropower/tracefit/pkg/ui/common"
	"github.com/macropower/tracefit/pkg/ui/plotter"
	"github.com/macropower/tracefit/pkg/uitest"
)

func newPage(t *testing.T, traces ...*trace.Trace) (*common.CommonModel, *plotter.Model) {
	t.Helper()

	cm := uitest.NewCommonModel(t, traces...)

	kb := &plotter.KeyBinds{}
	kb.EnsureDefaults()

	page := plotter.NewModel(plotter.Config{CommonModel: cm, KeyBinds: kb, PlotHeight: 6})
	page.SetSize(uitest.StandardWidth, 60)

	return cm, page
}

func TestModel_View(t *testing.T) {
	t.Parallel()

	ragged, err := trace.New("short.csv", []float64{0, 1, 2}, []float64{0, 1, 2})
	require.NoError(t, err)

	tcs := map[string]struct {
		setup   func(t *testing.T, c *trace.Collection)
		traces  []*trace.Trace
		want    []string
		notWant []string
	}{
		"nothing selected": {
			traces:  uitest.Traces(2),
			want:    []string{"No traces selected.", "0 selected"},
			notWant: []string{"Fits"},
		},
		"selected without fits": {
			traces: uitest.Traces(2),
			setup: func(t *testing.T, c *trace.Collection) {
				t.Helper()

				c.SetSelected([]string{"test_file_0.csv", "test_file_1.csv"})
			},
			want:    []string{"Traces", "Fits", "There are no fits!", "test_file_0.csv", "test_file_1.csv", "2 series"},
			notWant: []string{"No traces selected."},
		},
		"selected with a fit": {
			traces: uitest.Traces(2),
			setup: func(t *testing.T, c *trace.Collection) {
				t.Helper()

				c.SetSelected([]string{"test_file_0.csv", "test_file_1.csv"})

				_, err := fit.Apply(context.Background(), fit.Line{}, c, "test_file_1.csv")
				require.NoError(t, err)
			},
			want:    []string{"Traces", "Fits", "2 series", "1 series"},
			notWant: []string{"There are no fits!"},
		},
		"unselected fits are not plotted": {
			traces: uitest.Traces(2),
			setup: func(t *testing.T, c *trace.Collection) {
				t.Helper()

				c.SetSelected([]string{"test_file_0.csv"})

				_, err := fit.Apply(context.Background(), fit.Line{}, c, "test_file_1.csv")
				require.NoError(t, err)
			},
			want: []string{"There are no fits!", "1 series"},
		},
		"different lengths": {
			traces: append(uitest.Traces(1), ragged),
			setup: func(t *testing.T, c *trace.Collection) {
				t.Helper()

				c.SetSelected([]string{"test_file_0.csv", "short.csv"})
			},
			want: []string{"different lengths"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cm, page := newPage(t, tc.traces...)
			if tc.setup != nil {
				tc.setup(t, cm.Session.Data())
			}

			uitest.Run(t, cm, page, common.RerunMsg{})

			view := uitest.Plain(page.View())
			for _, w := range tc.want {
				assert.Contains(t, view, w)
			}
			for _, nw := range tc.notWant {
				assert.NotContains(t, view, nw)
			}
		})
	}
}

func TestModel_Scroll(t *testing.T) {
	t.Parallel()

	cm, page := newPage(t, uitest.Traces(2)...)
	page.SetSize(uitest.StandardWidth, 10)

	data := cm.Session.Data()
	data.SetSelected(data.AllNames())

	_, err := fit.Apply(context.Background(), fit.Line{}, data)
	require.NoError(t, err)

	uitest.Run(t, cm, page, common.RerunMsg{})

	top := uitest.Plain(page.View())
	assert.Contains(t, top, "Traces")
	assert.LessOrEqual(t, strings.Count(top, "\n")+1, 10)

	uitest.Run(t, cm, page, uitest.Key("G"))

	bottom := uitest.Plain(page.View())
	assert.NotEqual(t, top, bottom)
	assert.NotContains(t, bottom, "Traces")
	assert.Contains(t, bottom, "2 series")

	uitest.Run(t, cm, page, uitest.Key("g"))
	assert.Equal(t, top, uitest.Plain(page.View()))
}
