package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/tracefit/pkg/fit"
)

// FitTraceParams defines parameters for the fit_trace tool.
type FitTraceParams struct {
	Model string   `json:"model,omitempty" jsonschema:"the model to fit: line, poly2 or poly3; defaults to the configured model"`
	Names []string `json:"names,omitempty" jsonschema:"the traces to fit, exactly as listed by list_traces; every loaded trace when empty"`
}

// FitTraceResult contains the fits that were made.
type FitTraceResult struct {
	Message string        `json:"message"`
	Fits    []*fit.Result `json:"fits"`
	Errors  []string      `json:"errors,omitempty"`
}

func (s *Server) handleFitTrace(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	in FitTraceParams,
) (*mcp.CallToolResult, FitTraceResult, error) {
	modelName := in.Model
	if modelName == "" {
		modelName = s.model
	}

	m, err := fit.ModelByName(modelName)
	if err != nil {
		return nil, FitTraceResult{}, err //nolint:wrapcheck // Names the model.
	}

	results, err := fit.Apply(ctx, m, s.session.Data(), in.Names...)
	if err != nil && len(results) == 0 {
		return nil, FitTraceResult{}, fmt.Errorf("fit %s: %w", m.Name(), err)
	}

	result := FitTraceResult{
		Fits:   results,
		Errors: splitErrors(err),
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Fitted %d traces with %s.", len(results), m.Name())
	for _, r := range results {
		fmt.Fprintf(&b, "\n%s: %s, R² = %.4g, RMSE = %.4g", r.Name, formatParams(r), r.RSquared, r.RMSE)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(&b, "\n%d traces could not be fitted.", len(result.Errors))
	}

	result.Message = b.String()

	return textResult(result.Message), result, nil
}

func formatParams(r *fit.Result) string {
	parts := make([]string, 0, len(r.Params))
	for _, p := range r.Params {
		parts = append(parts, fmt.Sprintf("%s = %.6g", p.Name, p.Value))
	}

	return strings.Join(parts, ", ")
}

// splitErrors returns the messages of a joined error.
func splitErrors(err error) []string {
	if err == nil {
		return nil
	}

	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []string{err.Error()}
	}

	errs := joined.Unwrap()
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}

	return msgs
}
