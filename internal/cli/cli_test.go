package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/api/v1beta1/configs"
	"github.com/macropower/tracefit/internal/cli"
	"github.com/macropower/tracefit/pkg/export"
	"github.com/macropower/tracefit/pkg/trace"
)

// execute runs the root command with a config in a temporary directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := cli.NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())

	return stdout.String(), err
}

func configPath(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "config.yaml")
}

func writeTraces(t *testing.T, n int) string {
	t.Helper()

	opts := trace.DefaultGenerateOptions
	opts.Seed = 1
	opts.Points = 20

	dir := t.TempDir()

	_, err := trace.WriteDir(dir, trace.Generate(n, opts))
	require.NoError(t, err)

	return dir
}

func TestGenerateCmd(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args    []string
		want    int
		wantErr string
	}{
		"defaults": {
			want: 10,
		},
		"count": {
			args: []string{"-n", "3", "--points", "5", "--seed", "7"},
			want: 3,
		},
		"invalid count": {
			args:    []string{"-n", "0"},
			wantErr: "count must be at least 1",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := filepath.Join(t.TempDir(), "data")

			out, err := execute(t, append([]string{"generate", dir}, tc.args...)...)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)

			lines := strings.Fields(out)
			assert.Len(t, lines, tc.want)

			for _, p := range lines {
				tr, err := trace.ReadFile(p)
				require.NoError(t, err)
				assert.NoError(t, tr.Validate())
			}
		})
	}
}

func TestFitCmd(t *testing.T) {
	t.Parallel()

	dir := writeTraces(t, 3)

	tcs := map[string]struct {
		check   func(t *testing.T, out string)
		args    []string
		wantErr string
	}{
		"yaml by default": {
			check: func(t *testing.T, out string) {
				t.Helper()

				assert.Contains(t, out, "traces:")
				assert.Contains(t, out, "fits:")
				assert.Contains(t, out, "model: line")
			},
		},
		"json with model": {
			args: []string{"--format", "json", "--model", "poly2"},
			check: func(t *testing.T, out string) {
				t.Helper()

				var doc export.Document
				require.NoError(t, json.Unmarshal([]byte(out), &doc))
				require.Len(t, doc.Fits, 3)

				for _, f := range doc.Fits {
					assert.Equal(t, "poly2", f.Model)
					assert.Len(t, f.Params, 3)
				}
			},
		},
		"csv with selection": {
			args: []string{"--format", "csv", "--select", `trace.name == "test_file_1.csv"`},
			check: func(t *testing.T, out string) {
				t.Helper()

				lines := strings.Split(strings.TrimSpace(out), "\n")
				require.Len(t, lines, 21)
				assert.Equal(t, "name,x,y,y_fit", lines[0])

				for _, l := range lines[1:] {
					assert.True(t, strings.HasPrefix(l, "test_file_1.csv,"), l)
				}
			},
		},
		"unknown model": {
			args:    []string{"--model", "spline"},
			wantErr: "unknown model",
		},
		"unknown format": {
			args:    []string{"--format", "xml"},
			wantErr: "unknown format",
		},
		"nothing selected": {
			args:    []string{"--select", "trace.points > 100"},
			wantErr: "no traces to fit",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"fit", dir, "--config", configPath(t)}, tc.args...)

			out, err := execute(t, args...)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			tc.check(t, out)
		})
	}
}

func TestFitCmd_OutputFile(t *testing.T) {
	t.Parallel()

	dir := writeTraces(t, 2)
	path := filepath.Join(t.TempDir(), "fits.json")

	out, err := execute(t, "fit", dir, "--config", configPath(t), "--output", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc export.Document
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Len(t, doc.Traces, 2)
	assert.Len(t, doc.Fits, 2)
}

func TestRunCmd(t *testing.T) {
	t.Parallel()

	dir := writeTraces(t, 2)

	tcs := map[string]struct {
		check   func(t *testing.T, out, cfgPath string)
		args    []string
		wantErr string
	}{
		"summary when not a terminal": {
			check: func(t *testing.T, out, _ string) {
				t.Helper()

				lines := strings.Split(strings.TrimSpace(out), "\n")
				require.Len(t, lines, 2)
				assert.True(t, strings.HasPrefix(lines[0], "test_file_0.csv\tline\tslope="), lines[0])
				assert.Contains(t, lines[1], "\tr2=")
			},
		},
		"summary of selection": {
			args: []string{"--select", `trace.name.endsWith("1.csv")`},
			check: func(t *testing.T, out, _ string) {
				t.Helper()

				assert.Equal(t, 1, strings.Count(out, "\n"))
				assert.Contains(t, out, "test_file_1.csv")
			},
		},
		"show config": {
			args: []string{"--show-config"},
			check: func(t *testing.T, out, _ string) {
				t.Helper()

				assert.Contains(t, out, "apiVersion: tracefit.macropower.dev/v1beta1")
				assert.Contains(t, out, "kind: Configuration")
				assert.Contains(t, out, "model: line")
			},
		},
		"write config": {
			args: []string{"--write-config"},
			check: func(t *testing.T, out, cfgPath string) {
				t.Helper()

				assert.Empty(t, out)
				assert.FileExists(t, cfgPath)
				assert.FileExists(t, filepath.Join(filepath.Dir(cfgPath), configs.SchemaFile))
			},
		},
		"bad selection": {
			args:    []string{"--select", "trace.points >"},
			wantErr: "select",
		},
		"too many args": {
			args:    []string{"extra"},
			wantErr: "accepts at most 1 arg",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfgPath := configPath(t)
			args := append([]string{dir, "--config", cfgPath}, tc.args...)

			out, err := execute(t, args...)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			tc.check(t, out, cfgPath)
		})
	}
}

func TestRunCmd_DiffConfig(t *testing.T) {
	t.Parallel()

	cfgPath := configPath(t)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`apiVersion: tracefit.macropower.dev/v1beta1
kind: Configuration
fit:
  model: poly2
`), 0o600))

	out, err := execute(t, writeTraces(t, 1), "--config", cfgPath, "--diff-config")
	require.NoError(t, err)

	assert.Contains(t, out, "--- defaults")
	assert.Contains(t, out, "+++ "+cfgPath)
	assert.Regexp(t, `(?m)^-\s+model: line$`, out)
	assert.Regexp(t, `(?m)^\+\s+model: poly2$`, out)
}

func TestRunCmd_InvalidConfig(t *testing.T) {
	t.Parallel()

	dir := writeTraces(t, 1)
	cfgPath := configPath(t)

	require.NoError(t, os.WriteFile(cfgPath, []byte(`apiVersion: tracefit.macropower.dev/v1beta1
kind: Configuration
fit:
  model: spline
`), 0o600))

	_, err := execute(t, dir, "--config", cfgPath)
	require.ErrorContains(t, err, "invalid config")
}
