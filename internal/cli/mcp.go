package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/tracefit/pkg/loader"
	"github.com/macropower/tracefit/pkg/mcp"
	"github.com/macropower/tracefit/pkg/session"
)

const mcpExamples = `  # Serve the traces in ./data on stdio:
  tracefit mcp ./data

  # Serve over streamable HTTP, reloading when files change:
  tracefit mcp ./data --address localhost:8080 --watch`

type MCPArgs struct {
	*RootArgs

	Path       string
	ConfigPath string
	Address    string
	Watch      bool
}

func NewMCPArgs(rootArgs *RootArgs) *MCPArgs {
	return &MCPArgs{
		RootArgs: rootArgs,
	}
}

func (ma *MCPArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ma.ConfigPath, "config", "", "Path to the tracefit configuration file")
	cmd.Flags().StringVar(&ma.Address, "address", "", "Serve over HTTP at the specified address instead of stdio")
	cmd.Flags().BoolVarP(&ma.Watch, "watch", "w", false, "Watch for changes and trigger reloading")

	err := cmd.MarkFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}
}

func NewMCPCmd(ma *MCPArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "mcp [path]",
		Short:             "Serve traces to MCP clients without the TUI",
		Example:           mcpExamples,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: runCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			ma.Path = "."
			if len(args) > 0 {
				ma.Path = args[0]
			}

			return runMCP(cmd, ma)
		},
	}
	ma.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runMCP(cmd *cobra.Command, ma *MCPArgs) error {
	ctx := cmd.Context()

	cfg, _, err := loadConfig(ma.ConfigPath)
	if err != nil {
		return err
	}

	watch := ma.Watch || *cfg.Load.Watch

	l, err := loader.New(ma.Path, append(cfg.Load.Opts(), loader.WithWatch(watch))...)
	if err != nil {
		return fmt.Errorf("create loader: %w", err)
	}
	defer l.Close()

	sess := session.New(nil)

	out := l.RunContext(ctx)
	if out.Error != nil {
		return fmt.Errorf("load %s: %w", out.Path, out.Error)
	}

	out.Apply(sess.Data(), false)

	slog.Info("loaded traces",
		slog.String("path", out.Path),
		slog.Int("count", len(out.Names)),
		slog.Int("failed", len(out.Failed)),
	)

	// Subscribe after the first load, which was applied above.
	ch := make(chan loader.Event)
	l.Subscribe(ch)

	go func() {
		for event := range ch {
			e, ok := event.(loader.EventEnd)
			if !ok {
				continue
			}
			if e.Error != nil {
				slog.Error("reload traces", slog.Any("err", e.Error))

				continue
			}

			e.Apply(sess.Data(), false)
		}
	}()

	if watch {
		go l.RunOnEvent()
	}

	s, err := mcp.NewServer(ma.Address, sess,
		mcp.WithReloader(l),
		mcp.WithDefaultModel(cfg.Fit.Model),
	)
	if err != nil {
		return fmt.Errorf("create MCP server: %w", err)
	}

	return s.Serve(ctx) //nolint:wrapcheck // Already wrapped.
}
