// Package plot renders traces as terminal line charts with asciigraph.
package plot

import (
	"errors"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// ErrNoData is returned by [Render] when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// DefaultColors are cycled through for each series.
var DefaultColors = []asciigraph.AnsiColor{
	asciigraph.DodgerBlue,
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Goldenrod,
	asciigraph.DarkViolet,
	asciigraph.Cyan,
}

// Series is a single named line.
type Series struct {
	Name string
	Y    []float64
}

// Options controls the chart layout.
type Options struct {
	Caption string
	Colors  []asciigraph.AnsiColor
	Width   int
	Height  int
}

// Render draws every series on one chart. Series without finite values are
// skipped, and [ErrNoData] is returned when none are left.
func Render(opts Options, series ...Series) (string, error) {
	data := make([][]float64, 0, len(series))
	names := make([]string, 0, len(series))

	for _, s := range series {
		if !hasFinite(s.Y) {
			continue
		}

		data = append(data, s.Y)
		names = append(names, s.Name)
	}

	if len(data) == 0 {
		return "", ErrNoData
	}

	colors := opts.Colors
	if len(colors) == 0 {
		colors = DefaultColors
	}

	seriesColors := make([]asciigraph.AnsiColor, len(data))
	for i := range data {
		seriesColors[i] = colors[i%len(colors)]
	}

	aopts := []asciigraph.Option{
		asciigraph.Precision(2),
		asciigraph.SeriesColors(seriesColors...),
		asciigraph.SeriesLegends(names...),
	}
	if opts.Height > 0 {
		aopts = append(aopts, asciigraph.Height(opts.Height))
	}
	if opts.Width > 0 {
		aopts = append(aopts, asciigraph.Width(opts.Width))
	}
	if opts.Caption != "" {
		aopts = append(aopts, asciigraph.Caption(opts.Caption))
	}

	return asciigraph.PlotMany(data, aopts...), nil
}

// Rows renders rows from [trace.Stack] using names as legends.
func Rows(opts Options, names []string, rows [][]float64) (string, error) {
	series := make([]Series, len(rows))
	for i, row := range rows {
		series[i] = Series{Y: row}
		if i < len(names) {
			series[i].Name = names[i]
		}
	}

	return Render(opts, series...)
}

// Message renders msg centered in a box the size of a chart, so that pages
// keep their layout when there is nothing to plot.
func Message(msg string, width, height int) string {
	height = max(1, height)
	lines := make([]string, height)

	pad := max(0, (width-len([]rune(msg)))/2)
	lines[height/2] = strings.Repeat(" ", pad) + msg

	return strings.Join(lines, "\n")
}

func hasFinite(ys []float64) bool {
	for _, y := range ys {
		if !math.IsNaN(y) && !math.IsInf(y, 0) {
			return true
		}
	}

	return false
}
