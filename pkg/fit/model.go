// Package fit fits models to traces by least squares.
package fit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTooFewPoints is returned when a trace has fewer points than the model
	// has parameters.
	ErrTooFewPoints = errors.New("too few points")
	// ErrSingular is returned when the x values cannot determine the model,
	// for example when every x is equal.
	ErrSingular = errors.New("singular system")
	// ErrUnknownModel is returned by [ModelByName] for unknown names.
	ErrUnknownModel = errors.New("unknown model")
)

// Model is a function of x with parameters that can be solved for.
type Model interface {
	// Name returns the model name, as accepted by [ModelByName].
	Name() string
	// ParamNames returns the parameter names in the order used by
	// Eval and Solve.
	ParamNames() []string
	// Eval evaluates the model at x.
	Eval(x float64, params []float64) float64
	// Solve returns the least-squares parameters for the data.
	Solve(x, y []float64) ([]float64, error)
}

const (
	ModelLine  = "line"
	ModelPoly2 = "poly2"
	ModelPoly3 = "poly3"
)

// ModelNames lists the names accepted by [ModelByName].
var ModelNames = []string{ModelLine, ModelPoly2, ModelPoly3}

// ModelByName returns the [Model] with the given name.
func ModelByName(name string) (Model, error) {
	switch strings.ToLower(name) {
	case ModelLine, "":
		return Line{}, nil
	case ModelPoly2:
		return Polynomial{Degree: 2}, nil
	case ModelPoly3:
		return Polynomial{Degree: 3}, nil
	}

	return nil, fmt.Errorf("%w: %q, expected one of: %s",
		ErrUnknownModel, name, strings.Join(ModelNames, ", "))
}
