package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/macropower/tracefit/pkg/trace"
)

const generateExamples = `  # Write 10 noisy linear traces to ./data:
  tracefit generate ./data

  # Write 3 reproducible traces with 500 points each:
  tracefit generate ./data -n 3 --points 500 --seed 42`

type GenerateArgs struct {
	*RootArgs

	Dir      string
	Count    int
	Points   int
	SlopeMin int
	SlopeMax int
	Noise    float64
	Seed     uint64
}

func NewGenerateArgs(rootArgs *RootArgs) *GenerateArgs {
	return &GenerateArgs{
		RootArgs: rootArgs,
	}
}

func (ga *GenerateArgs) AddFlags(cmd *cobra.Command) {
	d := trace.DefaultGenerateOptions

	cmd.Flags().IntVarP(&ga.Count, "count", "n", 10, "Number of traces to write")
	cmd.Flags().IntVar(&ga.Points, "points", d.Points, "Number of points per trace")
	cmd.Flags().IntVar(&ga.SlopeMin, "slope-min", d.SlopeMin, "Smallest slope, inclusive")
	cmd.Flags().IntVar(&ga.SlopeMax, "slope-max", d.SlopeMax, "Largest slope, exclusive")
	cmd.Flags().Float64Var(&ga.Noise, "noise", d.Noise, "Standard deviation of the noise")
	cmd.Flags().Uint64Var(&ga.Seed, "seed", 0, "Random seed, 0 picks one")
}

func NewGenerateCmd(ga *GenerateArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate [dir]",
		Short:   "Write synthetic traces as CSV files",
		Example: generateExamples,
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return nil, cobra.ShellCompDirectiveFilterDirs
			}

			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ga.Dir = "."
			if len(args) > 0 {
				ga.Dir = args[0]
			}

			return runGenerate(cmd, ga)
		},
	}
	ga.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runGenerate(cmd *cobra.Command, ga *GenerateArgs) error {
	if ga.Count < 1 {
		return fmt.Errorf("invalid argument: count must be at least 1, got %d", ga.Count)
	}

	seed := ga.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // Any seed will do.
	}

	traces := trace.Generate(ga.Count, trace.GenerateOptions{
		Seed:     seed,
		Points:   ga.Points,
		SlopeMin: ga.SlopeMin,
		SlopeMax: ga.SlopeMax,
		Noise:    ga.Noise,
	})

	paths, err := trace.WriteDir(ga.Dir, traces)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if len(paths) > 0 {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(paths, "\n"))
		if err != nil {
			return fmt.Errorf("write paths: %w", err)
		}
	}

	slog.Debug("generated traces",
		slog.String("dir", ga.Dir),
		slog.Int("count", len(paths)),
		slog.Uint64("seed", seed),
	)

	return nil
}
