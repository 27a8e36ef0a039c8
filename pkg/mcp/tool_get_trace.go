package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetTraceParams defines parameters for the get_trace tool.
type GetTraceParams struct {
	Name      string `json:"name"                jsonschema:"the trace name, exactly as listed by list_traces"`
	MaxPoints int    `json:"maxPoints,omitempty" jsonschema:"the most points to return; longer traces are sampled evenly"`
}

// TraceStats holds descriptive statistics of a trace.
type TraceStats struct {
	XMin  float64 `json:"xMin"`
	XMax  float64 `json:"xMax"`
	YMin  float64 `json:"yMin"`
	YMax  float64 `json:"yMax"`
	YMean float64 `json:"yMean"`
}

// GetTraceResult contains a single trace.
type GetTraceResult struct {
	Trace     TraceSummary `json:"trace"`
	Stats     TraceStats   `json:"stats"`
	X         []float64    `json:"x"`
	Y         []float64    `json:"y"`
	YFit      []float64    `json:"yFit,omitempty"`
	Returned  int          `json:"returned"`
	Truncated bool         `json:"truncated"`
}

func (s *Server) handleGetTrace(
	_ context.Context,
	_ *mcp.CallToolRequest,
	in GetTraceParams,
) (*mcp.CallToolResult, GetTraceResult, error) {
	data := s.session.Data()

	t, err := data.Get(in.Name)
	if err != nil {
		return nil, GetTraceResult{}, err //nolint:wrapcheck // Names the trace.
	}

	limit := in.MaxPoints
	if limit <= 0 {
		limit = s.maxPoints
	}

	idx := sampleIndexes(t.Len(), limit)
	st := t.Summarize()

	result := GetTraceResult{
		Trace: summarize(data, t),
		Stats: TraceStats{
			XMin:  st.XMin,
			XMax:  st.XMax,
			YMin:  st.YMin,
			YMax:  st.YMax,
			YMean: st.YMean,
		},
		X:         pick(t.X, idx),
		Y:         pick(t.Y, idx),
		Returned:  len(idx),
		Truncated: len(idx) < t.Len(),
	}
	if t.HasFit() {
		result.YFit = pick(t.YFit, idx)
	}

	msg := fmt.Sprintf("Trace %q has %d points.", t.Name, t.Len())
	if result.Truncated {
		msg += fmt.Sprintf(" Returned %d evenly sampled points.", result.Returned)
	}
	if t.HasFit() {
		msg += fmt.Sprintf(" Fitted with %s, R² = %.4g.", t.Fit.Model, t.Fit.RSquared)
	}

	return textResult(msg), result, nil
}

// sampleIndexes returns at most limit indexes spread evenly over n points,
// always including the first and the last.
func sampleIndexes(n, limit int) []int {
	if n <= limit || limit < 2 {
		limit = n
	}

	idx := make([]int, 0, limit)
	if limit == n {
		for i := range n {
			idx = append(idx, i)
		}

		return idx
	}

	step := float64(n-1) / float64(limit-1)
	for i := range limit {
		idx = append(idx, int(float64(i)*step+0.5))
	}

	return idx
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, 0, len(idx))
	for _, i := range idx {
		if i < len(v) {
			out = append(out, v[i])
		}
	}

	return out
}

