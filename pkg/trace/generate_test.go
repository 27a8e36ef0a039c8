package trace_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/pkg/trace"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	opts := trace.DefaultGenerateOptions
	opts.Seed = 42
	opts.Points = 20

	traces := trace.Generate(3, opts)
	require.Len(t, traces, 3)

	for i, tr := range traces {
		require.NoError(t, tr.Validate())
		assert.Equal(t, 20, tr.Len())
		assert.InDelta(t, 0.0, tr.X[0], 1e-12)
		assert.InDelta(t, 1.0, tr.X[19], 1e-12)
		assert.Equal(t, []string{"test_file_0.csv", "test_file_1.csv", "test_file_2.csv"}[i], tr.Name)
	}

	again := trace.Generate(3, opts)
	assert.Equal(t, traces[1].Y, again[1].Y, "same seed must produce the same data")
}

func TestWriteDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")

	opts := trace.DefaultGenerateOptions
	opts.Points = 5

	traces := trace.Generate(2, opts)

	paths, err := trace.WriteDir(dir, traces)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	for i, path := range paths {
		got, err := trace.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, traces[i].Name, got.Name)
		assert.InDeltaSlice(t, traces[i].Y, got.Y, 1e-9)
	}
}
