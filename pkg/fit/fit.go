package fit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/macropower/tracefit/pkg/log"
	"github.com/macropower/tracefit/pkg/trace"
)

var tracer = otel.Tracer("fit")

// Result describes a single fitted trace.
type Result struct {
	Name     string        `json:"name"     yaml:"name"`
	Model    string        `json:"model"    yaml:"model"`
	Params   []trace.Param `json:"params"   yaml:"params"`
	RSquared float64       `json:"rSquared" yaml:"rSquared"`
	RMSE     float64       `json:"rmse"     yaml:"rmse"`
}

// Fit solves the model for the trace and stores the fit on it.
// The trace is left unchanged when solving fails.
func Fit(m Model, t *trace.Trace) (*Result, error) {
	err := t.Validate()
	if err != nil {
		return nil, err
	}

	params, err := m.Solve(t.X, t.Y)
	if err != nil {
		return nil, fmt.Errorf("%s: fit %s: %w", t.Name, m.Name(), err)
	}

	for i, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s: fit %s: %w: %s is %v", t.Name, m.Name(), trace.ErrNonFinite, m.ParamNames()[i], v)
		}
	}

	yfit := make([]float64, len(t.X))
	for i, x := range t.X {
		yfit[i] = m.Eval(x, params)
	}

	r2, rmse := goodness(t.Y, yfit)

	names := m.ParamNames()
	info := &trace.FitInfo{
		Model:    m.Name(),
		Params:   make([]trace.Param, len(params)),
		RSquared: r2,
		RMSE:     rmse,
	}

	for i, v := range params {
		info.Params[i] = trace.Param{Name: names[i], Value: v}
	}

	err = t.SetFit(info, yfit)
	if err != nil {
		return nil, err
	}

	return NewResult(t), nil
}

// NewResult returns the [Result] of a fitted trace, or nil if the trace has no
// fit.
func NewResult(t *trace.Trace) *Result {
	if t.Fit == nil {
		return nil
	}

	params := make([]trace.Param, len(t.Fit.Params))
	copy(params, t.Fit.Params)

	return &Result{
		Name:     t.Name,
		Model:    t.Fit.Model,
		Params:   params,
		RSquared: t.Fit.RSquared,
		RMSE:     t.Fit.RMSE,
	}
}

// Apply fits the named traces in the collection. With no names, every stored
// trace is fitted, including traces a reload dropped from
// [trace.Collection.AllNames]. A failing trace does not stop the others; all
// errors are joined and returned alongside the successful results.
func Apply(ctx context.Context, m Model, c *trace.Collection, names ...string) ([]*Result, error) {
	ctx, span := tracer.Start(ctx, "apply", oteltrace.WithAttributes(
		attribute.String("model", m.Name()),
	))
	defer span.End()

	if len(names) == 0 {
		names = c.Names()
	}

	span.SetAttributes(attribute.Int("traces", len(names)))

	var errs []error

	results := make([]*Result, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)

			break
		}

		var res *Result

		err := c.Update(name, func(t *trace.Trace) error {
			var err error

			res, err = Fit(m, t)

			return err
		})
		if err != nil {
			errs = append(errs, err)

			continue
		}

		results = append(results, res)
	}

	err := errors.Join(errs...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.WithContext(ctx).DebugContext(ctx, "fit failed", slog.Any("err", err))
	}

	return results, err
}

// goodness returns the coefficient of determination and the root mean
// squared error. A constant y that is matched exactly has an R² of 1.
func goodness(y, yfit []float64) (float64, float64) {
	var mean float64
	for _, v := range y {
		mean += v
	}

	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i := range y {
		r := y[i] - yfit[i]
		ssRes += r * r

		d := y[i] - mean
		ssTot += d * d
	}

	rmse := math.Sqrt(ssRes / float64(len(y)))

	switch {
	case ssTot > 0:
		return 1 - ssRes/ssTot, rmse
	case ssRes == 0:
		return 1, rmse
	}

	return 0, rmse
}
