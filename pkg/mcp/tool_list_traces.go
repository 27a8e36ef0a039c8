package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/tracefit/pkg/expr"
	"github.com/macropower/tracefit/pkg/trace"
)

// ListTracesParams defines parameters for the list_traces tool.
type ListTracesParams struct {
	Filter   string `json:"filter,omitempty"   jsonschema:"a CEL expression over the trace map with keys name, points, fitted, model, slope, intercept, r2, rmse, xmin, xmax, ymin, ymax and ymean, for example 'trace.points > 10 && !trace.fitted'"`
	Selected bool   `json:"selected,omitempty" jsonschema:"only list the traces selected in the UI"`
}

// TraceSummary describes a loaded trace without its points.
type TraceSummary struct {
	Fit      *trace.FitInfo `json:"fit,omitempty"`
	Name     string         `json:"name"`
	Points   int            `json:"points"`
	Selected bool           `json:"selected"`
}

// ListTracesResult contains the result of listing traces.
type ListTracesResult struct {
	Message string         `json:"message"`
	Traces  []TraceSummary `json:"traces"`
	Count   int            `json:"count"`
}

func summarize(c *trace.Collection, t *trace.Trace) TraceSummary {
	return TraceSummary{
		Name:     t.Name,
		Points:   t.Len(),
		Selected: c.IsSelected(t.Name),
		Fit:      t.Fit,
	}
}

func (s *Server) handleListTraces(
	_ context.Context,
	_ *mcp.CallToolRequest,
	in ListTracesParams,
) (*mcp.CallToolResult, ListTracesResult, error) {
	data := s.session.Data()

	traces := data.All()
	if in.Selected {
		traces = data.Selected()
	}

	if in.Filter != "" {
		f, err := expr.NewTraceFilter(in.Filter)
		if err != nil {
			return nil, ListTracesResult{}, fmt.Errorf("compile filter: %w", err)
		}

		traces, err = f.Filter(traces)
		if err != nil {
			return nil, ListTracesResult{}, fmt.Errorf("filter traces: %w", err)
		}
	}

	result := ListTracesResult{
		Traces: make([]TraceSummary, 0, len(traces)),
		Count:  len(traces),
	}
	for _, t := range traces {
		result.Traces = append(result.Traces, summarize(data, t))
	}

	result.Message = fmt.Sprintf("Found %d of %d loaded traces.", result.Count, data.Len())

	return textResult(result.Message), result, nil
}

func textResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
