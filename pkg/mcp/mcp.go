// Package mcp serves the loaded traces over the Model Context Protocol.
//
// The server shares the UI's [session.Session], so fits made by a client
// show up in the UI on its next sync.
package mcp

const (
	name         = "tracefit"
	instructions = `MCP Server 'tracefit' exposes the x/y traces loaded in a running tracefit session, and fits models to them.

When to use these tools:
- Inspecting which traces are loaded and selected
- Reading the points of a trace
- Fitting a line or polynomial to one or more traces, and reading the fitted parameters

REQUIRED workflow:
1. Use 'list_traces' first to see the loaded traces with their names.
2. Use 'get_trace' or 'fit_trace' with a name EXACTLY as listed.
3. Use 'clear_fit' to remove fits you no longer need.

Fits are shared with the user's terminal UI, which refreshes shortly after each change.
`

	// DefaultMaxPoints limits the points returned by get_trace.
	DefaultMaxPoints = 500
)
