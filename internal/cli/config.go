package cli

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/macropower/tracefit/api/v1beta1/configs"
	"github.com/macropower/tracefit/pkg/config"
	"github.com/macropower/tracefit/pkg/ui/theme"
)

// loadConfig writes the default config to path if nothing is there yet and
// loads it. An unreadable config falls back to the defaults, an invalid one
// is an error. The returned theme matches the config, even when the config
// is invalid.
func loadConfig(path string) (*configs.Config, *theme.Theme, error) {
	if path == "" {
		path = config.GetPath()
	}

	err := config.WriteDefaultConfig(path, false)
	if err != nil {
		slog.Error("write default config", slog.Any("err", err))
	}

	cl, err := config.NewConfigLoaderFromFile(path,
		config.WithThemeFromData(),
		config.WithColor(isTerminal(os.Stderr)),
	)
	if err != nil {
		slog.Warn("could not read config, using defaults", slog.Any("err", err))

		return configs.New(), theme.Default, nil
	}

	err = cl.Validate()
	if err != nil {
		return nil, cl.GetTheme(), fmt.Errorf("invalid config %q: %w", path, err)
	}

	cfg, err := cl.Load()
	if err != nil {
		return nil, cl.GetTheme(), fmt.Errorf("invalid config %q: %w", path, err)
	}

	slog.Debug("loaded config", slog.String("path", path))

	return cfg, cl.GetTheme(), nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
