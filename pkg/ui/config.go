package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/macropower/tracefit/pkg/keys"
	"github.com/macropower/tracefit/pkg/ui/common"
	"github.com/macropower/tracefit/pkg/ui/files"
	"github.com/macropower/tracefit/pkg/ui/fitter"
	"github.com/macropower/tracefit/pkg/ui/plotter"
	"github.com/macropower/tracefit/pkg/ui/theme"
)

const (
	DefaultTheme        = "auto"
	DefaultPlotHeight   = 12
	DefaultMinimumDelay = 200 * time.Millisecond

	minPlotHeight = 4
)

// ErrPlotHeight is returned when the plot height is too small to draw.
var ErrPlotHeight = errors.New("invalid plot height")

// Config contains TUI-specific configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	KeyBinds *KeyBinds `json:"keybinds,omitempty" jsonschema:"title=Key Binds"`
	// MinimumDelay is the shortest time a load is shown as in progress.
	MinimumDelay *time.Duration `json:"minimumDelay,omitempty" jsonschema:"title=Minimum Delay"`
	// PlotHeight is the height of each chart, in rows.
	PlotHeight *int `json:"plotHeight,omitempty" jsonschema:"title=Plot Height,minimum=4"`
	// Themes are custom chroma styles that Theme can refer to by name.
	Themes map[string]*theme.Config `json:"themes,omitempty" jsonschema:"title=Themes"`
	// Theme is a chroma style name, or one of auto, dark and light.
	Theme string `json:"theme,omitempty" jsonschema:"title=Theme"`
}

func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

func (c *Config) EnsureDefaults() {
	if c.KeyBinds == nil {
		c.KeyBinds = &KeyBinds{}
	}

	c.KeyBinds.EnsureDefaults()

	if c.MinimumDelay == nil {
		d := DefaultMinimumDelay
		c.MinimumDelay = &d
	}
	if c.PlotHeight == nil {
		h := DefaultPlotHeight
		c.PlotHeight = &h
	}
	if c.Theme == "" {
		c.Theme = DefaultTheme
	}
}

func (c *Config) Validate() error {
	if c.PlotHeight != nil && *c.PlotHeight < minPlotHeight {
		return fmt.Errorf("%w: %d, must be at least %d", ErrPlotHeight, *c.PlotHeight, minPlotHeight)
	}

	for name, tc := range c.Themes {
		if tc == nil {
			continue
		}

		_, err := tc.Entries()
		if err != nil {
			return fmt.Errorf("themes: %q: %w", name, err)
		}
	}

	if c.KeyBinds != nil {
		err := c.KeyBinds.Validate()
		if err != nil {
			return fmt.Errorf("keybinds: %w", err)
		}
	}

	return nil
}

// JSONSchemaExtend describes durations as strings, which is how they are
// written in YAML.
func (Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	delay, ok := jss.Properties.Get("minimumDelay")
	if !ok {
		panic("minimumDelay property not found in schema")
	}

	delay.Type = "string"
	delay.Pattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`
	delay.Examples = []any{"200ms", "1s"}

	_, _ = jss.Properties.Set("minimumDelay", delay)
}

// RegisterThemes registers the custom themes, so that [theme.New] can
// find them.
func (c *Config) RegisterThemes() error {
	err := theme.RegisterAll(c.Themes)
	if err != nil {
		return fmt.Errorf("register themes: %w", err)
	}

	return nil
}

type KeyBinds struct {
	Common *common.KeyBinds  `json:"common,omitempty"`
	Files  *files.KeyBinds   `json:"files,omitempty"`
	Fit    *fitter.KeyBinds  `json:"fit,omitempty"`
	Plot   *plotter.KeyBinds `json:"plot,omitempty"`
}

func (kb *KeyBinds) EnsureDefaults() {
	if kb.Common == nil {
		kb.Common = &common.KeyBinds{}
	}
	if kb.Files == nil {
		kb.Files = &files.KeyBinds{}
	}
	if kb.Fit == nil {
		kb.Fit = &fitter.KeyBinds{}
	}
	if kb.Plot == nil {
		kb.Plot = &plotter.KeyBinds{}
	}

	kb.Common.EnsureDefaults()
	kb.Files.EnsureDefaults()
	kb.Fit.EnsureDefaults()
	kb.Plot.EnsureDefaults()
}

// Validate reports keys that are bound twice within the common binds and any
// single page.
func (kb *KeyBinds) Validate() error {
	return errors.Join(
		keys.ValidateBinds(kb.Common.GetKeyBinds(), kb.Files.GetKeyBinds()),
		keys.ValidateBinds(kb.Common.GetKeyBinds(), kb.Fit.GetKeyBinds()),
		keys.ValidateBinds(kb.Common.GetKeyBinds(), kb.Plot.GetKeyBinds()),
	)
}
