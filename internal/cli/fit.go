package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	xstrings "github.com/charmbracelet/x/exp/strings"
	"github.com/spf13/cobra"

	"github.com/macropower/tracefit/pkg/export"
	"github.com/macropower/tracefit/pkg/expr"
	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/loader"
	"github.com/macropower/tracefit/pkg/trace"
)

const fitExamples = `  # Fit a line to every trace and print them as YAML:
  tracefit fit ./data

  # Fit a quadratic and write JSON to a file:
  tracefit fit ./data --model poly2 --output fits.json

  # Only fit traces with enough points, as CSV:
  tracefit fit ./data --select 'trace.points >= 10' --format csv`

type FitArgs struct {
	*RootArgs

	Path       string
	ConfigPath string
	Model      string
	Format     string
	Output     string
	Select     string
}

func NewFitArgs(rootArgs *RootArgs) *FitArgs {
	return &FitArgs{
		RootArgs: rootArgs,
	}
}

func (fa *FitArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&fa.ConfigPath, "config", "", "Path to the tracefit configuration file")
	cmd.Flags().StringVarP(&fa.Model, "model", "m", "",
		"Model to fit, one of "+xstrings.EnglishJoin(fit.ModelNames, false)+" (default from config)")
	cmd.Flags().StringVarP(&fa.Format, "format", "f", "",
		"Output format, one of "+xstrings.EnglishJoin(export.Formats, false)+" (default from the output extension, or yaml)")
	cmd.Flags().StringVarP(&fa.Output, "output", "o", "-", "File to write, or - for stdout")
	cmd.Flags().StringVar(&fa.Select, "select", "", "CEL expression selecting the traces to fit")

	var err error

	err = cmd.RegisterFlagCompletionFunc("model",
		cobra.FixedCompletions(fit.ModelNames, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("format",
		cobra.FixedCompletions(export.Formats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.MarkFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}
}

func NewFitCmd(fa *FitArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "fit [path]",
		Short:             "Fit traces without the TUI and export them",
		Example:           fitExamples,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: runCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			fa.Path = "."
			if len(args) > 0 {
				fa.Path = args[0]
			}

			return runFit(cmd, fa)
		},
	}
	fa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runFit(cmd *cobra.Command, fa *FitArgs) error {
	ctx := cmd.Context()

	cfg, _, err := loadConfig(fa.ConfigPath)
	if err != nil {
		return err
	}

	if fa.Model != "" {
		cfg.Fit.Model = fa.Model
	}

	m, err := cfg.Fit.GetModel()
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	s, err := export.ByFormat(outputFormat(fa.Format, fa.Output))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	var selection *expr.TraceFilter
	if fa.Select != "" {
		selection, err = expr.NewTraceFilter(fa.Select)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
	}

	l, err := loader.New(fa.Path, append(cfg.Load.Opts(), loader.WithWatch(false))...)
	if err != nil {
		return fmt.Errorf("create loader: %w", err)
	}
	defer l.Close()

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

	results, fitErr := fit.Apply(ctx, m, data, names...)

	traces := make([]*trace.Trace, 0, len(results))
	for _, r := range results {
		t, err := data.Get(r.Name)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		traces = append(traces, t)
	}

	err = writeOutput(cmd.OutOrStdout(), fa.Output, func(w io.Writer) error {
		return s.Serialize(w, traces)
	})
	if err != nil {
		return err
	}

	slog.Info("fitted traces",
		slog.String("model", m.Name()),
		slog.Int("fitted", len(results)),
		slog.Int("total", len(names)),
	)

	if fitErr != nil {
		return fmt.Errorf("fit %s: %w", m.Name(), fitErr)
	}

	return nil
}

// outputFormat returns format, or guesses it from the output file extension.
func outputFormat(format, output string) string {
	if format != "" {
		return format
	}

	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if ext == "" || output == "-" {
		return export.FormatYAML
	}

	return ext
}

// writeOutput calls write with stdout when path is "-", and with the file at
// path otherwise.
func writeOutput(stdout io.Writer, path string, write func(w io.Writer) error) error {
	if path == "-" || path == "" {
		return write(stdout)
	}

	f, err := os.Create(path) //nolint:gosec // G304: User-provided output path.
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	err = write(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
