package fitter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/tracefit/pkg/export"
	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/ui/common"
	"github.com/macropower/tracefit/pkg/ui/fitter"
	"github.com/macropower/tracefit/pkg/uitest"
)

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text

	return nil
}

func newPage(t *testing.T, n int, cfg *fit.Config) (*common.CommonModel, *fitter.Model, *fakeClipboard) {
	t.Helper()

	cm := uitest.NewCommonModel(t, uitest.Traces(n)...)

	kb := &fitter.KeyBinds{}
	kb.EnsureDefaults()

	if cfg == nil {
		cfg = fit.NewConfig()
	}

	cb := &fakeClipboard{}
	page := fitter.NewModel(fitter.Config{
		CommonModel: cm,
		KeyBinds:    kb,
		Fit:         cfg,
		Clipboard:   cb.WriteAll,
	})
	page.SetSize(uitest.StandardWidth, uitest.StandardHeight)

	return cm, page, cb
}

func messages(cmds []tea.Cmd) ([]common.StatusMsg, []error) {
	var (
		status []common.StatusMsg
		errs   []error
	)

	for _, msg := range uitest.Exec(cmds...) {
		switch msg := msg.(type) {
		case common.StatusMsg:
			status = append(status, msg)
		case common.ErrMsg:
			errs = append(errs, msg.Err)
		}
	}

	return status, errs
}

func TestModel_Navigation(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want string
		keys []string
	}{
		"starts at first": {
			want: "test_file_0.csv",
		},
		"next": {
			keys: []string{"right"},
			want: "test_file_1.csv",
		},
		"next wraps": {
			keys: []string{"l", "l", "l"},
			want: "test_file_0.csv",
		},
		"previous wraps": {
			keys: []string{"h"},
			want: "test_file_2.csv",
		},
		"up and down": {
			keys: []string{"down", "down", "up"},
			want: "test_file_1.csv",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cm, page, _ := newPage(t, 3, nil)

			for _, k := range tc.keys {
				uitest.Run(t, cm, page, uitest.Key(k))
			}

			assert.Equal(t, tc.want, page.CurrentName())
			assert.Equal(t, tc.want, cm.Session.Get(fitter.CurrentKey))
		})
	}
}

func TestModel_Fit(t *testing.T) {
	t.Parallel()

	cm, page, _ := newPage(t, 3, nil)
	data := cm.Session.Data()

	assert.Contains(t, uitest.Plain(page.View()), "Not fitted.")

	status, errs := messages(uitest.Run(t, cm, page, uitest.Key("f")))
	require.Empty(t, errs)
	require.Len(t, status, 1)
	assert.Contains(t, status[0].Message, "fitted test_file_0.csv")

	tr, err := data.Get("test_file_0.csv")
	require.NoError(t, err)
	require.True(t, tr.HasFit())
	assert.Equal(t, fit.ModelLine, tr.Fit.Model)

	view := uitest.Plain(page.View())
	assert.Contains(t, view, "slope = ")
	assert.Contains(t, view, "R² = ")

	other, err := data.Get("test_file_1.csv")
	require.NoError(t, err)
	assert.False(t, other.HasFit())

	status, errs = messages(uitest.Run(t, cm, page, uitest.Key("F")))
	require.Empty(t, errs)
	require.Len(t, status, 1)
	assert.Equal(t, "fitted 3 traces", status[0].Message)

	for _, tr := range data.All() {
		assert.True(t, tr.HasFit(), tr.Name)
	}

	uitest.Run(t, cm, page, uitest.Key("c"))

	tr, err = data.Get("test_file_0.csv")
	require.NoError(t, err)
	assert.False(t, tr.HasFit())
	assert.Contains(t, uitest.Plain(page.View()), "Not fitted.")

	uitest.Run(t, cm, page, uitest.Key("C"))

	for _, tr := range data.All() {
		assert.False(t, tr.HasFit(), tr.Name)
	}
}

func TestModel_CycleModel(t *testing.T) {
	t.Parallel()

	cm, page, _ := newPage(t, 1, nil)
	assert.Equal(t, fit.ModelLine, page.ModelName())

	uitest.Run(t, cm, page, uitest.Key("m"))
	assert.Equal(t, fit.ModelPoly2, page.ModelName())

	uitest.Run(t, cm, page, uitest.Key("f"))

	tr, err := cm.Session.Data().Get("test_file_0.csv")
	require.NoError(t, err)
	require.True(t, tr.HasFit())
	assert.Equal(t, fit.ModelPoly2, tr.Fit.Model)
	assert.Len(t, tr.Fit.Params, 3)

	uitest.Run(t, cm, page, uitest.Key("m"), uitest.Key("m"))
	assert.Equal(t, fit.ModelLine, page.ModelName())
}

func TestModel_ConfiguredModel(t *testing.T) {
	t.Parallel()

	cfg := fit.NewConfig()
	cfg.Model = fit.ModelPoly3

	_, page, _ := newPage(t, 1, cfg)
	assert.Equal(t, fit.ModelPoly3, page.ModelName())
	assert.Contains(t, uitest.Plain(page.View()), "model: poly3")
}

func TestModel_Export(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err  error
		file string
		fit  bool
	}{
		"json": {
			file: "fits.json",
			fit:  true,
		},
		"yaml": {
			file: "fits.yaml",
			fit:  true,
		},
		"csv": {
			file: "fits.csv",
			fit:  true,
		},
		"unknown format": {
			file: "fits.txt",
			fit:  true,
			err:  export.ErrUnknownFormat,
		},
		"no fits": {
			file: "fits.json",
			err:  fitter.ErrNoFits,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := fit.NewConfig()
			cfg.ExportPath = filepath.Join(t.TempDir(), tc.file)

			cm, page, _ := newPage(t, 2, cfg)
			if tc.fit {
				uitest.Run(t, cm, page, uitest.Key("F"))
			}

			status, errs := messages(uitest.Run(t, cm, page, uitest.Key("e")))
			if tc.err != nil {
				require.Len(t, errs, 1)
				require.ErrorIs(t, errs[0], tc.err)
				assert.NoFileExists(t, cfg.ExportPath)

				return
			}

			require.Empty(t, errs)
			require.Len(t, status, 1)
			assert.Equal(t, "exported to "+cfg.ExportPath, status[0].Message)

			b, err := os.ReadFile(cfg.ExportPath)
			require.NoError(t, err)
			assert.Contains(t, string(b), "test_file_1.csv")
		})
	}
}

func TestModel_Copy(t *testing.T) {
	t.Parallel()

	cm, page, cb := newPage(t, 2, nil)

	_, errs := messages(uitest.Run(t, cm, page, uitest.Key("y")))
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], fitter.ErrNoFits)
	assert.Empty(t, cb.text)

	uitest.Run(t, cm, page, uitest.Key("f"))

	status, errs := messages(uitest.Run(t, cm, page, uitest.Key("y")))
	require.Empty(t, errs)
	require.Len(t, status, 1)
	assert.Equal(t, "copied 1 fits", status[0].Message)
	assert.Contains(t, cb.text, "test_file_0.csv\tline\tslope=")
	assert.NotContains(t, cb.text, "test_file_1.csv")
}

func TestModel_CurrentFallsBack(t *testing.T) {
	t.Parallel()

	cm, page, _ := newPage(t, 3, nil)
	uitest.Run(t, cm, page, uitest.Key("l"), uitest.Key("l"))
	require.Equal(t, "test_file_2.csv", page.CurrentName())

	data := cm.Session.Data()
	data.SetAllNames([]string{"test_file_0.csv", "test_file_1.csv"})
	data.Remove("test_file_2.csv")

	uitest.Run(t, cm, page, common.RerunMsg{})
	assert.Equal(t, "test_file_0.csv", page.CurrentName())
}

func TestModel_Empty(t *testing.T) {
	t.Parallel()

	cm, page, _ := newPage(t, 0, nil)

	assert.Empty(t, page.CurrentName())
	assert.Contains(t, uitest.Plain(page.View()), "No traces loaded.")

	assert.Empty(t, uitest.Run(t, cm, page, uitest.Key("f"), uitest.Key("c"), uitest.Key("l")))
}
