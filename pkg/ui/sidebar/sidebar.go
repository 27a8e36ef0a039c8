// Package sidebar renders the page selector.
package sidebar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/macropower/tracefit/pkg/ui/theme"
)

const title = "Page states"

// Sidebar is a radio selector over page names.
type Sidebar struct {
	theme   *theme.Theme
	pages   []string
	current int
	height  int
}

func New(t *theme.Theme, pages ...string) *Sidebar {
	return &Sidebar{theme: t, pages: pages}
}

// Current returns the index of the selected page.
func (s *Sidebar) Current() int {
	return s.current
}

// CurrentName returns the name of the selected page.
func (s *Sidebar) CurrentName() string {
	if len(s.pages) == 0 {
		return ""
	}

	return s.pages[s.current]
}

// Select selects the page at i. Out of range values are ignored.
func (s *Sidebar) Select(i int) {
	if i < 0 || i >= len(s.pages) {
		return
	}

	s.current = i
}

// Next selects the next page, wrapping around.
func (s *Sidebar) Next() {
	if len(s.pages) == 0 {
		return
	}

	s.current = (s.current + 1) % len(s.pages)
}

// Prev selects the previous page, wrapping around.
func (s *Sidebar) Prev() {
	if len(s.pages) == 0 {
		return
	}

	s.current = (s.current - 1 + len(s.pages)) % len(s.pages)
}

func (s *Sidebar) SetHeight(height int) {
	s.height = height
}

// Width returns the rendered width.
func (s *Sidebar) Width() int {
	return lipgloss.Width(s.View())
}

func (s *Sidebar) View() string {
	var b strings.Builder

	b.WriteString(s.theme.TitleStyle.Render(title))
	b.WriteString("\n\n")

	for i, name := range s.pages {
		if i == s.current {
			b.WriteString(s.theme.SelectedStyle.Render("(•) " + name))
		} else {
			b.WriteString(s.theme.GenericTextStyle.Render("( ) " + name))
		}

		if i < len(s.pages)-1 {
			b.WriteString("\n")
		}
	}

	style := s.theme.SidebarStyle
	if s.height > 0 {
		style = style.Height(s.height)
	}

	return style.Render(b.String())
}
