package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aymanbagabas/go-udiff"
	"github.com/spf13/cobra"

	"github.com/macropower/tracefit/api/v1beta1/configs"
	"github.com/macropower/tracefit/pkg/export"
	"github.com/macropower/tracefit/pkg/expr"
	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/loader"
	"github.com/macropower/tracefit/pkg/log"
	"github.com/macropower/tracefit/pkg/mcp"
	"github.com/macropower/tracefit/pkg/trace"
	"github.com/macropower/tracefit/pkg/ui"
	"github.com/macropower/tracefit/pkg/ui/theme"
)

const (
	cmdExamples = `  # Load every trace in the current directory:
  tracefit

  # Load a file or directory:
  tracefit ./data

  # Watch for changes and reload:
  tracefit ./data --watch

  # Select the steep traces on load:
  tracefit ./data --select 'trace.ymax > 100'

  # Let an MCP client fit traces while the UI runs:
  tracefit ./data --serve-mcp localhost:8080

  # Print a fit summary (disables TUI):
  tracefit ./data > fits.tsv`
)

type RunArgs struct {
	*RootArgs

	Path        string
	ConfigPath  string
	ServeMCP    string
	Select      string
	Watch       bool
	WriteConfig bool
	ShowConfig  bool
	DiffConfig  bool
}

func NewRunArgs(rootArgs *RootArgs) *RunArgs {
	return &RunArgs{
		RootArgs: rootArgs,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ra.ConfigPath, "config", "", "Path to the tracefit configuration file")
	cmd.Flags().StringVar(&ra.ServeMCP, "serve-mcp", "", "Serve the MCP server over HTTP at the specified address")
	cmd.Flags().StringVar(&ra.Select, "select", "", "CEL expression selecting traces when they are loaded")
	cmd.Flags().BoolVarP(&ra.Watch, "watch", "w", false, "Watch for changes and trigger reloading")
	cmd.Flags().BoolVar(&ra.WriteConfig, "write-config", false, "Write the default configuration files and exit")
	cmd.Flags().BoolVar(&ra.ShowConfig, "show-config", false, "Print the active configuration and exit")
	cmd.Flags().BoolVar(&ra.DiffConfig, "diff-config", false, "Print how the active configuration differs from the defaults and exit")

	err := cmd.MarkFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}
}

func NewRunCmd(ra *RunArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "run [path]",
		Short:             "Default command, can be used explicitly if path/command is ambiguous",
		Example:           cmdExamples,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: runCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			ra.Path = "."
			if len(args) > 0 {
				ra.Path = args[0]
			}

			return run(cmd, ra)
		},
	}
	ra.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runCompletion(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}

	return nil, cobra.ShellCompDirectiveNoFileComp
}

func run(cmd *cobra.Command, ra *RunArgs) error {
	configPath := ra.ConfigPath
	if configPath == "" {
		configPath = configs.GetPath()
	}

	if ra.WriteConfig {
		// Errors are fatal when writing is all that was asked for.
		return configs.WriteDefault(configPath, false) //nolint:wrapcheck // Already wrapped.
	}

	cfg, t, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	err = cfg.UI.RegisterThemes()
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped.
	}

	if ra.ShowConfig {
		slog.Info("active configuration", slog.String("path", configPath))

		return showConfig(cmd.OutOrStdout(), cfg, t)
	}

	if ra.DiffConfig {
		return diffConfig(cmd.OutOrStdout(), configPath, cfg)
	}

	var selection *expr.TraceFilter
	if ra.Select != "" {
		selection, err = expr.NewTraceFilter(ra.Select)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
	}

	l, err := loader.New(ra.Path, append(cfg.Load.Opts(), loader.WithWatch(ra.Watch || *cfg.Load.Watch))...)
	if err != nil {
		return fmt.Errorf("create loader: %w", err)
	}
	defer l.Close()

	// If stdout is not a terminal, print a summary instead.
	if !isTerminal(os.Stdout) {
		return summarize(cmd, l, cfg.Fit, selection)
	}

	logBuf := log.NewBuffer(log.DefaultBufferSize)
	logHandler, err := log.NewHandler(logBuf, ra.LogLevel, ra.LogFormat)
	if err != nil {
		return fmt.Errorf("create log handler: %w", err)
	}

	slog.SetDefault(slog.New(logHandler))

	m := ui.NewModel(cfg.UI,
		ui.WithLoader(l),
		ui.WithFitConfig(cfg.Fit),
		ui.WithMatch(cfg.Load.Match),
		ui.WithSelect(selection),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if ra.ServeMCP != "" {
		mcpServer, err := mcp.NewServer(ra.ServeMCP, m.Session(),
			mcp.WithReloader(l),
			mcp.WithDefaultModel(cfg.Fit.Model),
		)
		if err != nil {
			return fmt.Errorf("create MCP server: %w", err)
		}

		go func() {
			err := mcpServer.Serve(ctx)
			if err != nil {
				slog.Error("MCP server failed", slog.Any("err", err))
			}
		}()
	}

	err = runUI(m, l)
	if err != nil {
		slog.Error("run UI", slog.Any("err", err))
		flushLogs(cmd.ErrOrStderr(), logBuf)

		return fmt.Errorf("ui program failure: %w", err)
	}

	flushLogs(cmd.ErrOrStderr(), logBuf)

	return nil
}

func showConfig(w io.Writer, cfg *configs.Config, t *theme.Theme) error {
	b, err := cfg.MarshalYAML()
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped.
	}

	if f, ok := w.(*os.File); ok && isTerminal(f) {
		err = t.Highlight(w, "yaml", string(b))
		if err == nil {
			return nil
		}

		slog.Warn("highlight config", slog.Any("err", err))
	}

	_, err = w.Write(b)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// diffConfig writes a unified diff from the default configuration to cfg.
// Nothing is written when they are the same.
func diffConfig(w io.Writer, path string, cfg *configs.Config) error {
	def, err := configs.New().MarshalYAML()
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped.
	}

	cur, err := cfg.MarshalYAML()
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped.
	}

	diff := udiff.Unified("defaults", path, string(def), string(cur))
	if diff == "" {
		slog.Info("configuration matches the defaults", slog.String("path", path))

		return nil
	}

	_, err = io.WriteString(w, diff)
	if err != nil {
		return fmt.Errorf("write diff: %w", err)
	}

	return nil
}

// summarize loads the traces once, fits them and writes the fit parameters.
// With a selection, only the selected traces are fitted.
func summarize(cmd *cobra.Command, l *loader.Loader, cfg *fit.Config, selection *expr.TraceFilter) error {
	ctx := cmd.Context()

	out := l.RunContext(ctx)
	if out.Error != nil {
		return fmt.Errorf("load %s: %w", out.Path, out.Error)
	}

	for _, f := range out.Failed {
		slog.Warn("skipped file", slog.String("file", f.Name), slog.Any("err", f.Err))
	}

	data := trace.NewCollection()
	out.Apply(data, false)

	names, err := selectNames(data, selection)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("no traces to fit")
	}

	m, err := cfg.GetModel()
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	results, fitErr := fit.Apply(ctx, m, data, names...)

	err = export.Params(cmd.OutOrStdout(), results)
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped.
	}
	if fitErr != nil {
		return fmt.Errorf("fit %s: %w", m.Name(), fitErr)
	}

	return nil
}

// selectNames returns the names of the traces matching the filter, or every
// name when the filter is nil.
func selectNames(data *trace.Collection, selection *expr.TraceFilter) ([]string, error) {
	if selection == nil {
		return data.AllNames(), nil
	}

	matched, err := selection.Filter(data.All())
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	names := make([]string, 0, len(matched))
	for _, t := range matched {
		names = append(names, t.Name)
	}

	return names, nil
}

func flushLogs(w io.Writer, buf *log.Buffer) {
	slog.Debug("flush logs to console",
		slog.Int("count", buf.Len()),
		slog.Int("dropped", buf.Dropped()),
	)

	_, err := buf.WriteTo(w)
	if err != nil {
		panic(err)
	}
}

// runUI starts the UI program and forwards load events to it.
func runUI(m *ui.Model, l *loader.Loader) error {
	p := ui.NewProgram(m)

	ch := make(chan loader.Event)
	l.Subscribe(ch)

	go func() {
		for event := range ch {
			switch e := event.(type) {
			case loader.EventStart, loader.EventEnd, loader.EventCancel:
				p.Send(e)

			case loader.EventConfigure:
				continue
			}
		}
	}()
	go l.RunOnEvent()

	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("tea: %w", err)
	}

	return nil
}
