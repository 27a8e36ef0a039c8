package files_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/tracefit/pkg/trace"
	"github.com/macropower/tracefit/pkg/ui/common"
	"github.com/macropower/tracefit/pkg/ui/files"
	"github.com/macropower/tracefit/pkg/uitest"
)

func newPage(t *testing.T, n int) (*common.CommonModel, *files.Model) {
	t.Helper()

	cm := uitest.NewCommonModel(t, uitest.Traces(n)...)

	kb := &files.KeyBinds{}
	kb.EnsureDefaults()

	page := files.NewModel(files.Config{CommonModel: cm, KeyBinds: kb})
	page.SetSize(uitest.StandardWidth, uitest.StandardHeight)

	return cm, page
}

func TestModel_Selection(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want []string
		keys []tea.Msg
	}{
		"nothing": {
			want: []string{},
		},
		"toggle first": {
			keys: []tea.Msg{uitest.Key(" ")},
			want: []string{"test_file_0.csv"},
		},
		"toggle twice": {
			keys: []tea.Msg{uitest.Key(" "), uitest.Key("x")},
			want: []string{},
		},
		"move then toggle": {
			keys: []tea.Msg{uitest.Key("down"), uitest.Key("j"), uitest.Key(" "), uitest.Key("up"), uitest.Key(" ")},
			want: []string{"test_file_2.csv", "test_file_1.csv"},
		},
		"cursor stops at the end": {
			keys: []tea.Msg{uitest.Key("down"), uitest.Key("down"), uitest.Key("down"), uitest.Key("down"), uitest.Key(" ")},
			want: []string{"test_file_2.csv"},
		},
		"select all": {
			keys: []tea.Msg{uitest.Key("a")},
			want: []string{"test_file_0.csv", "test_file_1.csv", "test_file_2.csv"},
		},
		"select none": {
			keys: []tea.Msg{uitest.Key("a"), uitest.Key("n")},
			want: []string{},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cm, page := newPage(t, 3)
			uitest.Run(t, cm, page, tc.keys...)

			got := cm.Session.Data().SelectedNames()
			if len(tc.want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestModel_Remove(t *testing.T) {
	t.Parallel()

	cm, page := newPage(t, 3)
	data := cm.Session.Data()

	uitest.Run(t, cm, page, uitest.Key("a"), uitest.Key("down"), uitest.Key("delete"))

	assert.False(t, data.Has("test_file_1.csv"))
	assert.Equal(t, []string{"test_file_0.csv", "test_file_2.csv"}, data.AllNames())
	assert.Equal(t, []string{"test_file_0.csv", "test_file_2.csv"}, data.SelectedNames())
	assert.NotContains(t, uitest.Plain(page.View()), "test_file_1.csv")

	// The cursor stays on the row that took the removed row's place.
	assert.Equal(t, "test_file_2.csv", page.CurrentName())

	uitest.Run(t, cm, page, uitest.Key("D"))
	assert.Equal(t, []string{"test_file_0.csv"}, data.AllNames())
	assert.Equal(t, 1, data.Len())

	uitest.Run(t, cm, page, uitest.Key("D"), uitest.Key("D"))
	assert.Equal(t, 0, data.Len())
	assert.Contains(t, uitest.Plain(page.View()), "No traces loaded.")
}

func TestModel_Find(t *testing.T) {
	t.Parallel()

	cm, page := newPage(t, 12)

	msgs := append([]tea.Msg{uitest.Key("/")}, uitest.Type("11")...)
	uitest.Run(t, cm, page, msgs...)

	assert.True(t, page.Capturing())
	assert.Equal(t, "test_file_11.csv", page.CurrentName())

	view := uitest.Plain(page.View())
	assert.Contains(t, view, "test_file_11.csv")
	assert.NotContains(t, view, "test_file_3.csv")

	// Accepting keeps the filter and leaves input mode.
	uitest.Run(t, cm, page, uitest.Key("enter"), uitest.Key(" "))
	assert.False(t, page.Capturing())
	assert.Equal(t, []string{"test_file_11.csv"}, cm.Session.Data().SelectedNames())

	// Escape clears the filter.
	uitest.Run(t, cm, page, uitest.Key("esc"))
	assert.Contains(t, uitest.Plain(page.View()), "test_file_3.csv")
}

func TestModel_SelectByExpression(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		expression string
		want       []string
		wantErr    bool
	}{
		"by name": {
			expression: `trace.name.endsWith("_1.csv")`,
			want:       []string{"test_file_1.csv"},
		},
		"by points": {
			expression: `trace.points == 20`,
			want:       []string{"test_file_0.csv", "test_file_1.csv", "test_file_2.csv"},
		},
		"nothing matches": {
			expression: `trace.fitted`,
			want:       []string{},
		},
		"invalid expression": {
			expression: `trace.name ==`,
			wantErr:    true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cm, page := newPage(t, 3)

			msgs := append([]tea.Msg{uitest.Key("s")}, uitest.Type(tc.expression)...)
			uitest.Run(t, cm, page, msgs...)
			require.True(t, page.Capturing())

			cmds := uitest.Run(t, cm, page, uitest.Key("enter"))
			assert.False(t, page.Capturing())

			var gotErr error

			for _, msg := range uitest.Exec(cmds...) {
				if e, ok := msg.(common.ErrMsg); ok {
					gotErr = e
				}
			}

			if tc.wantErr {
				require.Error(t, gotErr)
				assert.Empty(t, cm.Session.Data().SelectedNames())

				return
			}

			require.NoError(t, gotErr)

			got := cm.Session.Data().SelectedNames()
			if len(tc.want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestModel_LoadMore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tr, err := trace.New("extra.csv", []float64{0, 1, 2}, []float64{1, 3, 5})
	require.NoError(t, err)

	f, err := os.Create(filepath.Join(dir, "extra.csv"))
	require.NoError(t, err)
	require.NoError(t, trace.WriteCSV(f, tr))
	require.NoError(t, f.Close())

	cm, page := newPage(t, 2)

	msgs := append([]tea.Msg{uitest.Key("o")}, uitest.Type(dir)...)
	msgs = append(msgs, uitest.Key("enter"))

	cmds := uitest.Run(t, cm, page, msgs...)
	assert.True(t, cm.Loading)

	var loaded *common.LoadedMsg

	for _, msg := range uitest.Exec(cmds...) {
		if lm, ok := msg.(common.LoadedMsg); ok {
			loaded = &lm
		}
	}

	require.NotNil(t, loaded)
	require.NoError(t, loaded.Output.Err())
	assert.True(t, loaded.Merge)
	assert.Equal(t, []string{"extra.csv"}, loaded.Output.Names)
}

func TestModel_Escape(t *testing.T) {
	t.Parallel()

	cm, page := newPage(t, 2)

	msgs := append([]tea.Msg{uitest.Key("s")}, uitest.Type("trace.fitted")...)
	msgs = append(msgs, uitest.Key("esc"))
	uitest.Run(t, cm, page, msgs...)

	assert.False(t, page.Capturing())
	assert.Empty(t, cm.Session.Data().SelectedNames())
}

func TestModel_RerunRefreshes(t *testing.T) {
	t.Parallel()

	cm, page := newPage(t, 2)
	assert.Contains(t, uitest.Plain(page.View()), "2 traces loaded")

	extra := uitest.Traces(3)[2]
	cm.Session.Data().Merge([]string{extra.Name}, []*trace.Trace{extra})
	cm.Session.Data().SetSelected([]string{extra.Name})

	uitest.Run(t, cm, page, common.RerunMsg{})

	view := uitest.Plain(page.View())
	assert.Contains(t, view, "3 traces loaded")
	assert.Contains(t, view, "[x] test_file_2.csv")
	assert.Contains(t, view, "1 of 3 selected")
}

func TestModel_View(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		cm := uitest.NewCommonModel(t)
		kb := &files.KeyBinds{}
		kb.EnsureDefaults()

		page := files.NewModel(files.Config{CommonModel: cm, KeyBinds: kb})
		page.SetSize(uitest.CompactWidth, uitest.CompactHeight)

		view := uitest.Plain(page.View())
		assert.Contains(t, view, "No traces loaded.")
		assert.Contains(t, view, "0 traces loaded")
	})

	t.Run("scrolls with the cursor", func(t *testing.T) {
		t.Parallel()

		cm, page := newPage(t, 30)
		page.SetSize(uitest.CompactWidth, 10)

		keys := make([]tea.Msg, 20)
		for i := range keys {
			keys[i] = uitest.Key("down")
		}

		uitest.Run(t, cm, page, keys...)

		view := uitest.Plain(page.View())
		assert.Equal(t, "test_file_20.csv", page.CurrentName())
		assert.Contains(t, view, "test_file_20.csv")
		assert.NotContains(t, view, "test_file_0.csv")
		assert.LessOrEqual(t, strings.Count(view, "\n")+1, 10)
	})
}
