package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var envNameReplacer = strings.NewReplacer("-", "_", ".", "_")

// envName returns the variable that sets the named flag, e.g. "log-level"
// is set by TRACEFIT_LOG_LEVEL.
func envName(flag string) string {
	return strings.ToUpper(cmdName + "_" + envNameReplacer.Replace(flag))
}

// bindEnvVars sets every flag of cmd that has a matching environment
// variable, and adds the variable to the flag's usage. It must be called
// before the flags are parsed, so that arguments still take precedence.
func bindEnvVars(cmd *cobra.Command) {
	seen := map[*pflag.Flag]bool{}

	bind := func(f *pflag.Flag) {
		if seen[f] {
			return
		}

		seen[f] = true

		name := envName(f.Name)
		if !strings.HasSuffix(f.Usage, "($"+name+")") {
			f.Usage += " ($" + name + ")"
		}

		val, ok := os.LookupEnv(name)
		if !ok || f.Changed {
			return
		}

		err := f.Value.Set(val)
		if err != nil {
			slog.Warn("ignore invalid environment variable",
				slog.String("env", name),
				slog.String("flag", f.Name),
				slog.Any("err", err),
			)
		}
	}

	cmd.Flags().VisitAll(bind)
	cmd.PersistentFlags().VisitAll(bind)
}
