package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/api"
	"github.com/macropower/tracefit/api/v1beta1/configs"
	"github.com/macropower/tracefit/pkg/config"
	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/ui/theme"
)

const header = `apiVersion: tracefit.macropower.dev/v1beta1
kind: Configuration
`

func createTempFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestNewConfigLoaderFromFile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setup func(t *testing.T) string
		err   error
	}{
		"valid file": {
			setup: func(t *testing.T) string {
				t.Helper()

				return createTempFile(t, header)
			},
		},
		"directory": {
			setup: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			err: api.ErrIsDir,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := config.NewConfigLoaderFromFile(tc.setup(t))
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestLoader_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input  string
		errMsg string
	}{
		"valid config": {
			input: header + `ui:
  theme: dracula
  minimumDelay: 1s
fit:
  model: poly2
`,
		},
		"invalid yaml": {
			input:  header + "fit: [unclosed\n",
			errMsg: "']' not found",
		},
		"unknown model": {
			input:  header + "fit:\n  model: spline\n",
			errMsg: "spline",
		},
		"wrong type": {
			input:  header + "ui:\n  plotHeight: tall\n",
			errMsg: "plotHeight",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cl, err := config.NewConfigLoaderFromBytes([]byte(tc.input))
			require.NoError(t, err)

			err = cl.Validate()
			if tc.errMsg != "" {
				require.ErrorContains(t, err, tc.errMsg)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		check  func(t *testing.T, cfg *configs.Config)
		input  string
		errMsg string
	}{
		"defaults": {
			input: header,
			check: func(t *testing.T, cfg *configs.Config) {
				t.Helper()

				assert.Equal(t, fit.ModelLine, cfg.Fit.Model)
				assert.Equal(t, 12, *cfg.UI.PlotHeight)
				assert.False(t, *cfg.Load.Watch)
			},
		},
		"overrides": {
			input: header + `ui:
  plotHeight: 20
  minimumDelay: 1s
fit:
  model: poly3
load:
  watch: true
`,
			check: func(t *testing.T, cfg *configs.Config) {
				t.Helper()

				assert.Equal(t, fit.ModelPoly3, cfg.Fit.Model)
				assert.Equal(t, 20, *cfg.UI.PlotHeight)
				assert.Equal(t, time.Second, *cfg.UI.MinimumDelay)
				assert.True(t, *cfg.Load.Watch)
			},
		},
		"key bind override": {
			input: header + `ui:
  keybinds:
    fit:
      fitAll:
        description: fit everything
        keys:
          - code: A
`,
			check: func(t *testing.T, cfg *configs.Config) {
				t.Helper()

				assert.Equal(t, "fit everything", cfg.UI.KeyBinds.Fit.FitAll.Description)
				assert.True(t, cfg.UI.KeyBinds.Fit.FitAll.Match("A"))
				assert.NotNil(t, cfg.UI.KeyBinds.Files.Toggle)
			},
		},
		"duplicate key bind": {
			input: header + `ui:
  keybinds:
    fit:
      fitAll:
        keys:
          - code: q
`,
			errMsg: "duplicate key binding",
		},
		"wrong kind": {
			input:  "apiVersion: tracefit.macropower.dev/v1beta1\nkind: Other\n",
			errMsg: "unsupported kind",
		},
		"invalid yaml": {
			input:  header + "fit: [unclosed\n",
			errMsg: "']' not found",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cl, err := config.NewConfigLoaderFromBytes([]byte(tc.input))
			require.NoError(t, err)

			cfg, err := cl.Load()
			if tc.errMsg != "" {
				require.ErrorContains(t, err, tc.errMsg)

				return
			}

			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, config.WriteDefaultConfig(path, false))
	assert.FileExists(t, filepath.Join(dir, configs.SchemaFile))

	cfg, cl, err := config.Load(path)
	require.NoError(t, err)
	require.NotNil(t, cl)
	assert.Equal(t, fit.ModelLine, cfg.Fit.Model)
	assert.Equal(t, 200*time.Millisecond, *cfg.UI.MinimumDelay)

	bad := createTempFile(t, header+"fit:\n  model: spline\n")

	_, _, err = config.Load(bad)
	require.ErrorContains(t, err, "invalid config")
}

func TestLoader_GetTheme(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    string
		wantName string
	}{
		"no theme": {
			input: header,
		},
		"valid yaml": {
			input:    header + "ui:\n  theme: dracula\n",
			wantName: "dracula",
		},
		"invalid yaml uses regex": {
			input:    header + "ui:\n  theme: 'dracula'\nfit: [unclosed\n",
			wantName: "dracula",
		},
		"invalid yaml with quoted theme": {
			input:    header + "ui:\n  plotHeight: 10\n  theme: \"dracula\" # comment\nbroken: [\n",
			wantName: "dracula",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cl, err := config.NewConfigLoaderFromBytes([]byte(tc.input), config.WithThemeFromData())
			require.NoError(t, err)

			want := theme.Default
			if tc.wantName != "" {
				want = theme.New(tc.wantName)
			}

			assert.Equal(t, want.Palette, cl.GetTheme().Palette)
		})
	}
}
