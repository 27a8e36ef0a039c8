// Package statusbar renders the bottom status bar and the help view.
package statusbar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/macropower/tracefit/pkg/ui/theme"
	"github.com/macropower/tracefit/pkg/version"
)

const (
	helpText  = " ? Help "
	errorText = " ! Error "
)

type Style int

const (
	StyleNormal Style = iota
	StyleSuccess
	StyleError
)

// Renderer renders the status bar. The bar is made of a logo, a note, a
// position note and a help hint, and always fills the full width.
type Renderer struct {
	theme   *theme.Theme
	message string
	width   int
	style   Style
}

func NewRenderer(t *theme.Theme, width int, opts ...Opt) *Renderer {
	r := &Renderer{theme: t, width: max(0, width), style: StyleNormal}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

type Opt func(*Renderer)

// WithMessage replaces the note with a styled message.
func WithMessage(message string, style Style) Opt {
	return func(r *Renderer) {
		r.style = style
		r.message = message
	}
}

// Render renders the status bar with a note and a position, such as "2/5".
func (r *Renderer) Render(note, position string) string {
	logo := r.logoView()
	help := r.helpView()
	pos := r.positionView(position)
	msg := r.noteView(note, ansi.PrintableRuneWidth(logo)+ansi.PrintableRuneWidth(pos)+ansi.PrintableRuneWidth(help))

	used := 0
	for _, s := range []string{logo, msg, pos, help} {
		used += ansi.PrintableRuneWidth(s)
	}

	space := r.noteStyle().Render(strings.Repeat(" ", max(0, r.width-used)))

	return truncate.String(logo+msg+space+pos+help, uint(r.width)) //nolint:gosec // Width is not negative.
}

func (r *Renderer) noteStyle() lipgloss.Style {
	switch r.style {
	case StyleError:
		return r.theme.StatusBarErrorStyle
	case StyleSuccess:
		return r.theme.StatusBarMessageStyle
	default:
		return r.theme.StatusBarStyle
	}
}

func (r *Renderer) noteView(note string, reserved int) string {
	if r.message != "" {
		note = r.message
	}

	note = strings.TrimSpace(strings.ReplaceAll(note, "\n", " "))
	if note == "" {
		return ""
	}

	available := max(0, r.width-reserved)
	note = truncate.StringWithTail(" "+note+" ", uint(available), r.theme.Ellipsis) //nolint:gosec // Uses max.

	return r.noteStyle().Render(note)
}

func (r *Renderer) positionView(position string) string {
	if position == "" {
		return ""
	}

	style := r.theme.StatusBarPosStyle
	if r.style != StyleNormal {
		style = r.theme.StatusBarMessagePosStyle
	}

	return style.Render(" " + position + " ")
}

func (r *Renderer) helpView() string {
	switch r.style {
	case StyleError:
		return r.theme.StatusBarErrorStyle.Render(errorText)
	case StyleSuccess:
		return r.theme.StatusBarMessageHelpStyle.Render(helpText)
	default:
		return r.theme.StatusBarHelpStyle.Render(helpText)
	}
}

func (r *Renderer) logoView() string {
	return r.theme.LogoStyle.Render(fmt.Sprintf(" tracefit %s ", version.GetVersion()))
}
