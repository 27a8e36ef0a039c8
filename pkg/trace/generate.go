package trace

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
)

// GenerateOptions controls synthetic trace generation.
type GenerateOptions struct {
	Seed     uint64
	Points   int
	SlopeMin int
	SlopeMax int
	Noise    float64
}

// DefaultGenerateOptions are the defaults used by [Generate].
var DefaultGenerateOptions = GenerateOptions{
	Points:   100,
	SlopeMin: 50,
	SlopeMax: 150,
	Noise:    15,
}

// Generate creates n noisy linear traces. Each trace has x spaced evenly on
// [0, 1] and y = N(0, noise) + a ramp from 0 to a random integer slope.
func Generate(n int, opts GenerateOptions) []*Trace {
	if opts.Points <= 1 {
		opts.Points = DefaultGenerateOptions.Points
	}
	if opts.SlopeMax <= opts.SlopeMin {
		opts.SlopeMin, opts.SlopeMax = DefaultGenerateOptions.SlopeMin, DefaultGenerateOptions.SlopeMax
	}

	r := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // Not for crypto.

	traces := make([]*Trace, 0, n)
	for i := range n {
		slope := float64(opts.SlopeMin + r.IntN(opts.SlopeMax-opts.SlopeMin))

		x := linspace(0, 1, opts.Points)
		ramp := linspace(0, slope, opts.Points)

		y := make([]float64, opts.Points)
		for j := range y {
			y[j] = r.NormFloat64()*opts.Noise + ramp[j]
		}

		traces = append(traces, &Trace{
			Name: fileName(i),
			X:    x,
			Y:    y,
		})
	}

	return traces
}

// WriteDir writes each trace to a CSV file in dir, creating dir if needed.
// It returns the written paths.
func WriteDir(dir string, traces []*Trace) ([]string, error) {
	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	paths := make([]string, 0, len(traces))
	for _, t := range traces {
		path := filepath.Join(dir, t.Name)

		f, err := os.Create(path) //nolint:gosec // G304: User-provided output directory.
		if err != nil {
			return paths, fmt.Errorf("create %s: %w", path, err)
		}

		err = WriteCSV(f, t)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func fileName(i int) string {
	return fmt.Sprintf("test_file_%d.csv", i)
}

func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start

		return out
	}

	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}

	out[n-1] = stop

	return out
}
