// Package plotter implements the page that plots the selected traces and
// their fits.
package plotter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/tracefit/pkg/keys"
	"github.com/macropower/tracefit/pkg/trace"
	"github.com/macropower/tracefit/pkg/ui/common"
	"github.com/macropower/tracefit/pkg/ui/plot"
)

const (
	Name = "Plot"

	DefaultPlotHeight = 12

	msgNoSelection = "No traces selected."
	msgNoFits      = "There are no fits!"
)

type Config struct {
	CommonModel *common.CommonModel
	KeyBinds    *KeyBinds
	PlotHeight  int
}

// Model plots the selected traces, then their fits.
type Model struct {
	cm *common.CommonModel
	kb *KeyBinds

	selected   []*trace.Trace
	viewport   viewport.Model
	plotHeight int
	width      int
	height     int
}

func NewModel(c Config) *Model {
	ph := c.PlotHeight
	if ph <= 0 {
		ph = DefaultPlotHeight
	}

	m := &Model{
		cm:         c.CommonModel,
		kb:         c.KeyBinds,
		viewport:   viewport.New(0, 0),
		plotHeight: ph,
	}
	m.refresh()

	return m
}

func (m *Model) Name() string { return Name }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Capturing() bool { return false }

func (m *Model) KeyBinds() []keys.KeyBind {
	return m.kb.GetKeyBinds()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	// Title and blank line.
	m.viewport.Height = max(0, height-2)
	m.render()
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case common.RerunMsg:
		m.refresh()

		return nil

	case tea.KeyMsg:
		key := msg.String()

		switch {
		case m.kb.Home.Match(key):
			m.viewport.GotoTop()

			return nil

		case m.kb.End.Match(key):
			m.viewport.GotoBottom()

			return nil

		case m.kb.HalfPageUp.Match(key):
			m.viewport.HalfPageUp()

			return nil

		case m.kb.HalfPageDown.Match(key):
			m.viewport.HalfPageDown()

			return nil
		}
	}

	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	return cmd
}

func (m *Model) refresh() {
	m.selected = m.cm.Session.Data().Selected()
	m.render()
}

func (m *Model) render() {
	m.viewport.SetContent(m.content())
	if m.viewport.PastBottom() {
		m.viewport.GotoBottom()
	}
}

func (m *Model) content() string {
	t := m.cm.Theme
	width := max(10, m.width-12)

	var b strings.Builder

	b.WriteString(t.SelectedStyle.Render("Traces"))
	b.WriteString("\n")

	if len(m.selected) == 0 {
		b.WriteString(plot.Message(msgNoSelection, width, m.plotHeight))

		return b.String()
	}

	b.WriteString(m.chart(m.selected, false, width))
	b.WriteString("\n\n")
	b.WriteString(t.SelectedStyle.Render("Fits"))
	b.WriteString("\n")

	var fitted []*trace.Trace

	for _, tr := range m.selected {
		if tr.HasFit() {
			fitted = append(fitted, tr)
		}
	}

	if len(fitted) == 0 {
		b.WriteString(plot.Message(msgNoFits, width, m.plotHeight))

		return b.String()
	}

	b.WriteString(m.chart(fitted, true, width))

	return b.String()
}

func (m *Model) chart(traces []*trace.Trace, useFit bool, width int) string {
	rows, err := trace.Stack(traces, useFit)
	if err != nil {
		return m.cm.Theme.StatusBarErrorStyle.Render(err.Error())
	}

	names := make([]string, len(traces))
	for i, tr := range traces {
		names[i] = tr.Name
	}

	out, err := plot.Rows(plot.Options{
		Width:   width,
		Height:  m.plotHeight,
		Caption: fmt.Sprintf("%d series", len(rows)),
	}, names, rows)
	if err != nil {
		return plot.Message(err.Error(), width, m.plotHeight)
	}

	return out
}

func (m *Model) View() string {
	t := m.cm.Theme

	header := t.TitleStyle.Render(Name) + " " +
		t.SubtleStyle.Render(fmt.Sprintf("%d selected", len(m.selected)))

	return header + "\n\n" + m.viewport.View()
}
