package statusbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/macropower/tracefit/pkg/ui/theme"
)

type KeyBindRenderer interface {
	Render(width int) string
}

// HelpRenderer renders the help view: the key binding columns, headed by
// the name of the page whose binds fill the last column.
type HelpRenderer struct {
	theme    *theme.Theme
	keyBinds KeyBindRenderer
	page     string
}

func NewHelpRenderer(t *theme.Theme, keyBinds KeyBindRenderer, page string) *HelpRenderer {
	return &HelpRenderer{theme: t, keyBinds: keyBinds, page: page}
}

func (r *HelpRenderer) Render(width int) string {
	inner := max(0, width-2)

	var sb strings.Builder

	if r.page != "" {
		title := r.theme.SubtleStyle.Render("keys: general · " + strings.ToLower(r.page))
		sb.WriteString(lipgloss.PlaceHorizontal(inner, lipgloss.Right, title) + "\n")
	}

	sb.WriteString(r.keyBinds.Render(inner))

	return r.theme.HelpStyle.Render(lipgloss.NewStyle().Padding(1).Render(sb.String()))
}

// Height returns the number of lines [HelpRenderer.Render] produces.
func (r *HelpRenderer) Height(width int) int {
	return lipgloss.Height(r.Render(width))
}
