package expr

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/macropower/tracefit/pkg/trace"
)

var traceEnv = MustNewEnvironment(
	cel.Variable("trace", cel.MapType(cel.StringType, cel.DynType)),
)

// TraceFilter selects loaded traces.
//
// Expressions see a `trace` map with the keys name, points, fitted, model,
// slope, intercept, r2, rmse, xmin, xmax, ymin, ymax and ymean. Fit values are
// zero for traces without a fit.
type TraceFilter struct {
	program    cel.Program
	expression string
}

// NewTraceFilter compiles the expression into a [TraceFilter].
func NewTraceFilter(expression string) (*TraceFilter, error) {
	program, err := traceEnv.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("trace filter %q: %w", expression, err)
	}

	return &TraceFilter{program: program, expression: expression}, nil
}

// Match reports whether the trace matches.
func (f *TraceFilter) Match(t *trace.Trace) (bool, error) {
	ok, err := evalBool(f.program, map[string]any{"trace": TraceVars(t)})
	if err != nil {
		return false, fmt.Errorf("%s: %w", t.Name, err)
	}

	return ok, nil
}

// Filter returns the traces that match, in order.
func (f *TraceFilter) Filter(traces []*trace.Trace) ([]*trace.Trace, error) {
	out := make([]*trace.Trace, 0, len(traces))
	for _, t := range traces {
		ok, err := f.Match(t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}

	return out, nil
}

func (f *TraceFilter) String() string {
	return f.expression
}

// TraceVars returns the variables a [TraceFilter] exposes for a trace.
func TraceVars(t *trace.Trace) map[string]any {
	s := t.Summarize()

	vars := map[string]any{
		"name":      t.Name,
		"points":    int64(t.Len()),
		"fitted":    t.HasFit(),
		"model":     "",
		"slope":     0.0,
		"intercept": 0.0,
		"r2":        0.0,
		"rmse":      0.0,
		"xmin":      s.XMin,
		"xmax":      s.XMax,
		"ymin":      s.YMin,
		"ymax":      s.YMax,
		"ymean":     s.YMean,
	}

	if t.Fit != nil {
		vars["model"] = t.Fit.Model
		vars["r2"] = t.Fit.RSquared
		vars["rmse"] = t.Fit.RMSE

		if v, ok := t.Fit.Param("slope"); ok {
			vars["slope"] = v
		}
		if v, ok := t.Fit.Param("intercept"); ok {
			vars["intercept"] = v
		}
	}

	return vars
}
