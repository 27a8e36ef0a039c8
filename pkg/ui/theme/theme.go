// Package theme derives the TUI styles from a chroma style.
package theme

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const Ellipsis = "…"

var (
	ErrInvalidName    = errors.New("invalid theme name")
	ErrRegisterStyles = errors.New("register styles")

	Default = New("github")
)

// Palette holds the theme colors as hex strings, for consumers that do not
// use lipgloss v1 styles.
type Palette struct {
	Text         string
	Background   string
	Accent       string
	AccentSubtle string
	Subtle       string
	Error        string
	Success      string
}

type Theme struct {
	CursorStyle               lipgloss.Style
	ErrorOverlayStyle         lipgloss.Style
	ErrorTitleStyle           lipgloss.Style
	FilterStyle               lipgloss.Style
	GenericOverlayStyle       lipgloss.Style
	GenericTextStyle          lipgloss.Style
	HelpStyle                 lipgloss.Style
	LogoStyle                 lipgloss.Style
	SelectedStyle             lipgloss.Style
	SelectedSubtleStyle       lipgloss.Style
	SidebarStyle              lipgloss.Style
	StatusBarHelpStyle        lipgloss.Style
	StatusBarMessageHelpStyle lipgloss.Style
	StatusBarMessagePosStyle  lipgloss.Style
	StatusBarMessageStyle     lipgloss.Style
	StatusBarErrorStyle       lipgloss.Style
	StatusBarPosStyle         lipgloss.Style
	StatusBarStyle            lipgloss.Style
	SubtleStyle               lipgloss.Style
	TitleStyle                lipgloss.Style

	Palette     Palette
	ChromaStyle *chroma.Style
	Ellipsis    string
}

func New(theme string) *Theme {
	style := newChromaStyle(theme)

	p := Palette{
		Text:         style.hex(chroma.Background, 0),
		Background:   style.hexBg(chroma.Background, 0),
		Accent:       style.hex(chroma.NameTag, 0),
		AccentSubtle: style.hex(chroma.NameTag, 0.3),
		Subtle:       style.hex(chroma.Comment, 0),
		Error:        style.hex(chroma.GenericDeleted, 0),
		Success:      style.hex(chroma.GenericInserted, 0),
	}

	var (
		genericStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(p.Text))

		logoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(p.Background)).
				Background(lipgloss.Color(p.Accent)).
				Bold(true)

		selectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(p.Accent))

		selectedSubtleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color(p.AccentSubtle))

		helpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(style.hex(chroma.Background, 0.2))).
				Background(lipgloss.Color(style.hexBg(chroma.Background, 0.2)))

		statusBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(p.Text)).
				Background(lipgloss.Color(style.hexBg(chroma.Background, 0.1)))

		statusBarPosStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color(p.Text)).
					Background(lipgloss.Color(style.hexBg(chroma.Background, 0.15)))

		statusBarMessageStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color(p.Background)).
					Background(lipgloss.Color(style.hex(chroma.NameTag, 0.15)))

		statusBarMessagePosStyle = lipgloss.NewStyle().
						Foreground(lipgloss.Color(p.Background)).
						Background(lipgloss.Color(style.hex(chroma.NameTag, 0.1)))

		statusBarMessageHelpStyle = genericStyle.
						Foreground(lipgloss.Color(p.Background)).
						Background(lipgloss.Color(p.Accent))

		statusBarErrorStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color(p.Background)).
					Background(lipgloss.Color(p.Error))

		errorTitleStyle = genericStyle.
				Background(lipgloss.Color(p.Error))

		errorOverlayStyle = genericStyle.
					Border(lipgloss.RoundedBorder()).
					BorderForeground(lipgloss.Color(p.Error))

		genericOverlayStyle = genericStyle.
					Border(lipgloss.RoundedBorder())

		subtleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(p.Subtle))

		sidebarStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, true, false, false).
				BorderForeground(lipgloss.Color(p.Subtle)).
				PaddingRight(1)

		titleStyle = selectedStyle.Bold(true)
	)

	return &Theme{
		CursorStyle:               selectedSubtleStyle,
		ErrorOverlayStyle:         errorOverlayStyle,
		ErrorTitleStyle:           errorTitleStyle,
		FilterStyle:               selectedStyle,
		GenericOverlayStyle:       genericOverlayStyle,
		GenericTextStyle:          genericStyle,
		HelpStyle:                 helpStyle,
		LogoStyle:                 logoStyle,
		SelectedStyle:             selectedStyle,
		SelectedSubtleStyle:       selectedSubtleStyle,
		SidebarStyle:              sidebarStyle,
		StatusBarHelpStyle:        helpStyle,
		StatusBarMessageHelpStyle: statusBarMessageHelpStyle,
		StatusBarMessagePosStyle:  statusBarMessagePosStyle,
		StatusBarMessageStyle:     statusBarMessageStyle,
		StatusBarErrorStyle:       statusBarErrorStyle,
		StatusBarPosStyle:         statusBarPosStyle,
		StatusBarStyle:            statusBarStyle,
		SubtleStyle:               subtleStyle,
		TitleStyle:                titleStyle,

		Palette:     p,
		ChromaStyle: style.style,
		Ellipsis:    Ellipsis,
	}
}

// Register adds a custom chroma style that can then be used by name.
func Register(name string, entries chroma.StyleEntries) error {
	if name == "" {
		return ErrInvalidName
	}

	customTheme, err := chroma.NewStyle(name, entries)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegisterStyles, err)
	}

	styles.Register(customTheme)

	return nil
}

type chromaStyle struct {
	style *chroma.Style
}

func newChromaStyle(theme string) chromaStyle {
	s := styles.Get(getStyle(theme))
	if s == nil {
		s = styles.Fallback
	}

	return chromaStyle{
		style: s,
	}
}

func (cs chromaStyle) hex(c chroma.TokenType, factor float64) string {
	colour := cs.style.Get(c).Colour //nolint:misspell // Chroma naming.
	if factor != 0 {
		colour = colour.BrightenOrDarken(factor)
	}

	return colour.String()
}

func (cs chromaStyle) hexBg(c chroma.TokenType, factor float64) string {
	bg := cs.style.Get(c).Background
	if factor != 0 {
		bg = bg.BrightenOrDarken(factor)
	}

	return bg.String()
}

func getStyle(style string) string {
	switch style {
	case "dark":
		return "github-dark"
	case "light":
		return "github"
	case "auto", "":
		return getDefaultStyle()
	default:
		return style
	}
}

func getDefaultStyle() string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return "" // Fallback.
	}
	if termenv.HasDarkBackground() {
		return "github-dark"
	}

	return "github"
}
