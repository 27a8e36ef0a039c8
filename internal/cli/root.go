package cli

import (
	"context"
	"fmt"
	"log/slog"

	xstrings "github.com/charmbracelet/x/exp/strings"
	"github.com/spf13/cobra"

	"github.com/macropower/tracefit/pkg/log"
	"github.com/macropower/tracefit/pkg/telemetry"
	"github.com/macropower/tracefit/pkg/version"
)

const (
	cmdName = "tracefit"
	cmdDesc = `Load, fit and plot x/y traces in the terminal.`
)

type RootArgs struct {
	shutdown  telemetry.ShutdownFunc
	LogLevel  string
	LogFormat string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", "Log level, one of "+xstrings.EnglishJoin(log.AllLevels, false))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", "Log format, one of "+xstrings.EnglishJoin(log.AllFormats, false))

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()
	runArgs := NewRunArgs(args)

	runCmd := NewRunCmd(runArgs)
	cmd := &cobra.Command{
		Use:                cmdName,
		Short:              cmdDesc,
		Example:            cmdExamples,
		Version:            version.Get().String(),
		PersistentPreRunE:  setup(args),
		PersistentPostRunE: teardown(args),
		ValidArgsFunction:  runCompletion,
		Args:               runCmd.Args,
		RunE:               runCmd.RunE,
	}

	args.AddFlags(cmd)
	runArgs.AddFlags(cmd)
	cmd.AddCommand(
		runCmd,
		NewFitCmd(NewFitArgs(args)),
		NewGenerateCmd(NewGenerateArgs(args)),
		NewMCPCmd(NewMCPArgs(args)),
	)

	bindEnvVars(cmd)

	return cmd
}

func setup(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.NewHandler(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		ra.shutdown, err = telemetry.Setup(cmd.Context(), cmdName, version.GetVersion())
		if err != nil {
			// Tracing is optional, so keep going without it.
			slog.Warn("set up telemetry", slog.Any("err", err))
		}

		return nil
	}
}

func teardown(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if ra.shutdown == nil {
			return nil
		}

		err := ra.shutdown(context.WithoutCancel(cmd.Context()))
		if err != nil {
			slog.Warn("shut down telemetry", slog.Any("err", err))
		}

		return nil
	}
}
