package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/loader"
	"github.com/macropower/tracefit/pkg/session"
	"github.com/macropower/tracefit/pkg/version"
)

// Reloader reloads the traces from disk.
type Reloader interface {
	RunContext(ctx context.Context) loader.Output
}

// Server implements the MCP server for tracefit.
type Server struct {
	server    *mcp.Server
	session   *session.Session
	reloader  Reloader
	tracer    trace.Tracer
	address   string
	model     string
	maxPoints int
}

// ServerOpt configures a [Server].
type ServerOpt func(*Server)

// WithReloader adds the reload_traces tool, which reloads using r.
func WithReloader(r Reloader) ServerOpt {
	return func(s *Server) {
		s.reloader = r
	}
}

// WithDefaultModel sets the model fit_trace uses when none is given.
func WithDefaultModel(model string) ServerOpt {
	return func(s *Server) {
		s.model = model
	}
}

// WithMaxPoints limits the points returned by get_trace.
func WithMaxPoints(n int) ServerOpt {
	return func(s *Server) {
		s.maxPoints = n
	}
}

// NewServer creates a new MCP server over the traces of sess. An empty
// address serves on stdio, anything else on streamable HTTP.
func NewServer(address string, sess *session.Session, opts ...ServerOpt) (*Server, error) {
	s := &Server{
		address:   address,
		session:   sess,
		tracer:    otel.Tracer("mcp"),
		model:     fit.ModelLine,
		maxPoints: DefaultMaxPoints,
	}
	for _, opt := range opts {
		opt(s)
	}

	_, err := fit.ModelByName(s.model)
	if err != nil {
		return nil, fmt.Errorf("default model: %w", err)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}, &mcp.ServerOptions{
		Instructions: instructions,
	})

	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_traces",
		Description: "List the loaded traces with their size, selection and fit. Optionally filter them with a CEL expression.",
	}, WithTracing(s.tracer, s.handleListTraces))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_trace",
		Description: "Get the points and fit of a single trace. You MUST use a name from the list_traces output EXACTLY.",
	}, WithTracing(s.tracer, s.handleGetTrace))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fit_trace",
		Description: "Fit a model (line, poly2 or poly3) to the named traces, or to every loaded trace when no names are given.",
	}, WithTracing(s.tracer, s.handleFitTrace))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_fit",
		Description: "Remove the fit from the named traces, or from every trace when no names are given.",
	}, WithTracing(s.tracer, s.handleClearFit))

	if s.reloader != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reload_traces",
			Description: "Reload the traces from disk. Existing fits are kept for unchanged files.",
		}, WithTracing(s.tracer, s.handleReload))
	}
}

// Server returns the underlying MCP server.
func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve serves until ctx is canceled or the transport closes.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.Error("shut down MCP server", slog.Any("err", err))
		}
	}()

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := &mcp.LoggingTransport{
		Transport: &mcp.StdioTransport{},
		Writer:    os.Stderr,
	}

	err := s.server.Run(ctx, t)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	return nil
}
