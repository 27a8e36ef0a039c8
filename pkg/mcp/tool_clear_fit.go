package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ClearFitParams defines parameters for the clear_fit tool.
type ClearFitParams struct {
	Names []string `json:"names,omitempty" jsonschema:"the traces to clear, exactly as listed by list_traces; every trace when empty"`
}

// ClearFitResult lists the traces whose fit was removed.
type ClearFitResult struct {
	Message string   `json:"message"`
	Cleared []string `json:"cleared"`
}

func (s *Server) handleClearFit(
	_ context.Context,
	_ *mcp.CallToolRequest,
	in ClearFitParams,
) (*mcp.CallToolResult, ClearFitResult, error) {
	data := s.session.Data()

	names := in.Names
	if len(names) == 0 {
		names = data.AllNames()
	}

	result := ClearFitResult{Cleared: []string{}}

	var errs []error

	for _, name := range names {
		t, err := data.Get(name)
		if err != nil {
			errs = append(errs, err)

			continue
		}
		if !t.HasFit() {
			continue
		}

		err = data.ClearFit(name)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		result.Cleared = append(result.Cleared, name)
	}

	err := errors.Join(errs...)
	if err != nil {
		return nil, ClearFitResult{}, err
	}

	result.Message = fmt.Sprintf("Cleared %d fits.", len(result.Cleared))

	return textResult(result.Message), result, nil
}
