package expr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Runtime cost allowed for a single evaluation. Filters run once per trace
// on every reload, so an expression must not be able to stall the UI.
const maxCost = 100_000

var (
	// ErrNotBool is returned when an expression does not evaluate to a bool.
	ErrNotBool = errors.New("expression must return a boolean")

	// ErrCompile is returned for expressions that do not parse or type check.
	ErrCompile = errors.New("compile expression")
)

// Environment compiles boolean CEL expressions over a fixed set of
// variables. It is safe for concurrent use.
type Environment struct {
	env *cel.Env
	mu  sync.Mutex
}

// NewEnvironment returns an [Environment] with the functions of this package
// and opts, which usually declare the variables.
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	env, err := cel.NewEnv(append(opts, cel.Lib(&lib{}))...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &Environment{env: env}, nil
}

// MustNewEnvironment is like [NewEnvironment] but panics on error. It is
// meant for package level environments.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

// Compile checks that expression returns a bool and plans it for evaluation.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ast, iss := e.env.Compile(expression)
	if err := iss.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}

	if out := ast.OutputType(); !out.IsAssignableType(cel.BoolType) {
		return nil, fmt.Errorf("%w: got %s", ErrNotBool, out)
	}

	prg, err := e.env.Program(ast,
		cel.CostLimit(maxCost),
		cel.EvalOptions(cel.OptOptimize),
	)
	if err != nil {
		return nil, fmt.Errorf("plan expression: %w", err)
	}

	return prg, nil
}

func evalBool(prg cel.Program, vars map[string]any) (bool, error) {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %T", ErrNotBool, out.Value())
	}

	return b, nil
}
