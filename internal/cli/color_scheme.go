package cli

import (
	"image/color"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/exp/charmtone"

	"github.com/macropower/tracefit/pkg/config"
	"github.com/macropower/tracefit/pkg/ui/theme"
)

// ColorSchemeFunc styles help and error output with the configured UI
// theme. The config file is taken from $TRACEFIT_CONFIG, falling back to the
// default path. Flags are not parsed yet when fang asks for the scheme.
func ColorSchemeFunc(c lipgloss.LightDarkFunc) fang.ColorScheme {
	path := os.Getenv(envName("config"))
	if path == "" {
		path = config.GetPath()
	}

	t := theme.Default

	cl, err := config.NewConfigLoaderFromFile(path, config.WithThemeFromData())
	if err == nil {
		t = cl.GetTheme()
	}

	return ThemeColorScheme(t, c)
}

// ThemeColorScheme maps the UI theme onto fang's help and error styles.
func ThemeColorScheme(t *theme.Theme, c lipgloss.LightDarkFunc) fang.ColorScheme {
	text := t.GenericTextStyle.GetForeground()
	accent := t.SelectedStyle.GetForeground()
	subtle := t.SubtleStyle.GetForeground()

	return fang.ColorScheme{
		Base:           text,
		Title:          t.LogoStyle.GetBackground(),
		Codeblock:      c(charmtone.Salt, lipgloss.Color("#2F2E36")),
		Program:        accent,
		Command:        accent,
		Flag:           accent,
		FlagDefault:    t.SelectedSubtleStyle.GetForeground(),
		DimmedArgument: subtle,
		Comment:        subtle,
		Argument:       text,
		Description:    text,
		QuotedString:   text,
		ErrorHeader:    [2]color.Color{t.ErrorTitleStyle.GetForeground(), t.ErrorTitleStyle.GetBackground()},
	}
}
