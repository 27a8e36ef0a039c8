package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReloadTracesParams defines parameters for the reload_traces tool.
type ReloadTracesParams struct{}

// ReloadTracesResult describes a reload.
type ReloadTracesResult struct {
	Message string   `json:"message"`
	Path    string   `json:"path"`
	Names   []string `json:"names"`
	Failed  []string `json:"failed,omitempty"`
}

func (s *Server) handleReload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ReloadTracesParams,
) (*mcp.CallToolResult, ReloadTracesResult, error) {
	out := s.reloader.RunContext(ctx)
	if out.Error != nil {
		return nil, ReloadTracesResult{}, fmt.Errorf("reload %s: %w", out.Path, out.Error)
	}

	out.Apply(s.session.Data(), false)

	result := ReloadTracesResult{
		Path:  out.Path,
		Names: append([]string{}, out.Names...),
	}
	for _, f := range out.Failed {
		result.Failed = append(result.Failed, f.Error())
	}

	result.Message = fmt.Sprintf("Loaded %d traces from %s.", len(result.Names), out.Path)
	if len(result.Failed) > 0 {
		result.Message += fmt.Sprintf(" %d files failed.", len(result.Failed))
	}

	return textResult(result.Message), result, nil
}
