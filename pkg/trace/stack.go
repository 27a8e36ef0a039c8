package trace

import (
	"errors"
	"fmt"
	"slices"
)

// ErrRaggedStack is returned when stacked series have different lengths.
var ErrRaggedStack = errors.New("cannot stack series of different lengths")

// Stack stacks the y values of the traces into rows. When useFit is true, only
// fitted traces contribute a row of their fitted values.
//
// It returns nil when there are no traces, or when useFit is true and none of
// the traces are fitted.
func Stack(traces []*Trace, useFit bool) ([][]float64, error) {
	if len(traces) == 0 {
		return nil, nil
	}

	rows := make([][]float64, 0, len(traces))
	for _, t := range traces {
		switch {
		case !useFit:
			rows = append(rows, slices.Clone(t.Y))
		case t.YFit != nil:
			rows = append(rows, slices.Clone(t.YFit))
		}
	}

	if len(rows) == 0 {
		return nil, nil
	}

	width := len(rows[0])
	for i, row := range rows[1:] {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRaggedStack, i+1, len(row), width)
		}
	}

	return rows, nil
}
