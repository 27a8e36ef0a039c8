package trace

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrMissingColumn is returned when a trace is missing its x or y column.
	ErrMissingColumn = errors.New("missing column")
	// ErrLengthMismatch is returned when series lengths differ.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrEmptyTrace is returned when a trace has no points.
	ErrEmptyTrace = errors.New("empty trace")
	// ErrNonFinite is returned when a series holds NaN or an infinity.
	ErrNonFinite = errors.New("non-finite value")
)

// Param is a single named fit parameter.
type Param struct {
	Name  string  `json:"name"  yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// FitInfo describes the model fitted to a [Trace].
type FitInfo struct {
	Model    string  `json:"model"    yaml:"model"`
	Params   []Param `json:"params"   yaml:"params"`
	RSquared float64 `json:"rSquared" yaml:"rSquared"`
	RMSE     float64 `json:"rmse"     yaml:"rmse"`
}

// Param returns the value of the named parameter.
func (fi *FitInfo) Param(name string) (float64, bool) {
	if fi == nil {
		return 0, false
	}

	for _, p := range fi.Params {
		if p.Name == name {
			return p.Value, true
		}
	}

	return 0, false
}

func (fi *FitInfo) clone() *FitInfo {
	if fi == nil {
		return nil
	}

	c := *fi
	c.Params = slices.Clone(fi.Params)

	return &c
}

// Trace is a single named x/y series with an optional fitted y series.
type Trace struct {
	Fit  *FitInfo  `json:"fit,omitempty"  yaml:"fit,omitempty"`
	Name string    `json:"name"           yaml:"name"`
	X    []float64 `json:"x"              yaml:"x"`
	Y    []float64 `json:"y"              yaml:"y"`
	YFit []float64 `json:"yFit,omitempty" yaml:"yFit,omitempty"`
}

// New creates a new [Trace] after validating the series.
func New(name string, x, y []float64) (*Trace, error) {
	t := &Trace{
		Name: name,
		X:    x,
		Y:    y,
	}

	err := t.Validate()
	if err != nil {
		return nil, err
	}

	return t, nil
}

// Validate checks the invariants of the trace.
func (t *Trace) Validate() error {
	switch {
	case t.X == nil:
		return fmt.Errorf("%s: %w: x", t.Name, ErrMissingColumn)
	case t.Y == nil:
		return fmt.Errorf("%s: %w: y", t.Name, ErrMissingColumn)
	case len(t.X) != len(t.Y):
		return fmt.Errorf("%s: %w: x has %d points, y has %d", t.Name, ErrLengthMismatch, len(t.X), len(t.Y))
	case len(t.X) == 0:
		return fmt.Errorf("%s: %w", t.Name, ErrEmptyTrace)
	case t.YFit != nil && len(t.YFit) != len(t.X):
		return fmt.Errorf("%s: %w: fit has %d points, x has %d", t.Name, ErrLengthMismatch, len(t.YFit), len(t.X))
	}

	if i := firstNonFinite(t.X); i >= 0 {
		return fmt.Errorf("%s: %w: x[%d] is %v", t.Name, ErrNonFinite, i, t.X[i])
	}

	if i := firstNonFinite(t.Y); i >= 0 {
		return fmt.Errorf("%s: %w: y[%d] is %v", t.Name, ErrNonFinite, i, t.Y[i])
	}

	return nil
}

func firstNonFinite(s []float64) int {
	return slices.IndexFunc(s, func(v float64) bool {
		return math.IsNaN(v) || math.IsInf(v, 0)
	})
}

// Len returns the number of points.
func (t *Trace) Len() int {
	return len(t.X)
}

// HasFit reports whether a fit is stored on the trace.
func (t *Trace) HasFit() bool {
	return t.YFit != nil
}

// SetFit stores a fit on the trace.
func (t *Trace) SetFit(info *FitInfo, yfit []float64) error {
	if len(yfit) != len(t.X) {
		return fmt.Errorf("%s: %w: fit has %d points, x has %d", t.Name, ErrLengthMismatch, len(yfit), len(t.X))
	}

	t.Fit = info
	t.YFit = yfit

	return nil
}

// ClearFit removes any stored fit.
func (t *Trace) ClearFit() {
	t.Fit = nil
	t.YFit = nil
}

// Clone returns a deep copy of the trace.
func (t *Trace) Clone() *Trace {
	if t == nil {
		return nil
	}

	return &Trace{
		Name: t.Name,
		X:    slices.Clone(t.X),
		Y:    slices.Clone(t.Y),
		YFit: slices.Clone(t.YFit),
		Fit:  t.Fit.clone(),
	}
}

// Summary holds descriptive statistics of a trace.
type Summary struct {
	XMin, XMax float64
	YMin, YMax float64
	YMean      float64
}

// Summarize computes a [Summary] of the trace.
func (t *Trace) Summarize() Summary {
	if t.Len() == 0 {
		return Summary{}
	}

	s := Summary{
		XMin: slices.Min(t.X),
		XMax: slices.Max(t.X),
		YMin: slices.Min(t.Y),
		YMax: slices.Max(t.Y),
	}

	var sum float64
	for _, y := range t.Y {
		sum += y
	}

	s.YMean = sum / float64(len(t.Y))

	return s
}
