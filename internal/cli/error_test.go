package cli_test

import (
	"bytes"
	"errors"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/internal/cli"
	"github.com/macropower/tracefit/pkg/ui/theme"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	_, flagErr := execute(t, "--config", configPath(t), "--nope")
	require.Error(t, flagErr)

	tcs := map[string]struct {
		err      error
		wantHint bool
	}{
		"unknown flag": {
			err:      flagErr,
			wantHint: true,
		},
		"too many arguments": {
			err:      errors.New("accepts at most 1 arg(s), received 2"),
			wantHint: true,
		},
		"runtime error": {
			err: errors.New("load traces: open data: no such file or directory"),
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			cli.ErrorHandler(&buf, fang.Styles{}, tc.err)

			out := ansi.Strip(buf.String())
			assert.Contains(t, out, tc.err.Error())

			if tc.wantHint {
				assert.Contains(t, out, "--help")
			} else {
				assert.NotContains(t, out, "--help")
			}
		})
	}
}

func TestThemeColorScheme(t *testing.T) {
	t.Parallel()

	t.Run("default", func(t *testing.T) {
		t.Parallel()

		cs := cli.ThemeColorScheme(theme.Default, lipgloss.LightDark(true))
		assert.NotNil(t, cs.Flag)
		assert.NotNil(t, cs.Base)
		assert.Equal(t, cs.Program, cs.Command)
	})

	t.Run("config theme", func(t *testing.T) {
		t.Parallel()

		cs := cli.ThemeColorScheme(theme.New("dracula"), lipgloss.LightDark(false))
		assert.Equal(t, cs.Flag, cs.Command)
		assert.Equal(t, cs.Comment, cs.DimmedArgument)
	})
}
