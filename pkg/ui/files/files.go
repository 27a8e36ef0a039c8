// Package files implements the page that lists loaded traces and chooses
// which of them are selected.
package files

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/tracefit/pkg/expr"
	"github.com/macropower/tracefit/pkg/keys"
	"github.com/macropower/tracefit/pkg/loader"
	"github.com/macropower/tracefit/pkg/ui/common"
	"github.com/macropower/tracefit/pkg/ui/statusbar"
)

const Name = "Load files"

type inputMode int

const (
	modeNone inputMode = iota
	modeFind
	modeSelect
	modeOpen
)

type row struct {
	name     string
	model    string
	points   int
	selected bool
}

type Config struct {
	CommonModel *common.CommonModel
	KeyBinds    *KeyBinds
	// Match is the file match expression used when loading more files.
	Match string
}

// Model lists the traces held by the session.
type Model struct {
	cm    *common.CommonModel
	kb    *KeyBinds
	match string

	rows     []row
	filtered []match
	input    textinput.Model
	mode     inputMode
	cursor   int
	offset   int
	width    int
	height   int
}

func NewModel(c Config) *Model {
	ti := textinput.New()
	ti.PromptStyle = c.CommonModel.Theme.FilterStyle.MarginRight(1)
	ti.Cursor.Style = c.CommonModel.Theme.CursorStyle.MarginRight(1)

	m := &Model{
		cm:    c.CommonModel,
		kb:    c.KeyBinds,
		match: c.Match,
		input: ti,
	}
	m.refresh()

	return m
}

func (m *Model) Name() string { return Name }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(0, width-12)
	m.clampCursor()
}

// Capturing reports whether text is being entered.
func (m *Model) Capturing() bool {
	return m.mode != modeNone
}

func (m *Model) KeyBinds() []keys.KeyBind {
	return m.kb.GetKeyBinds()
}

// CurrentName returns the name of the trace under the cursor.
func (m *Model) CurrentName() string {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return ""
	}

	return m.rows[m.filtered[m.cursor].index].name
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case common.RerunMsg:
		m.refresh()

		return nil

	case tea.KeyMsg:
		if m.mode != modeNone {
			return m.handleInput(msg)
		}

		return m.handleKey(msg)
	}

	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	ckb := m.cm.KeyBinds
	data := m.cm.Session.Data()

	switch {
	case ckb.Up.Match(key):
		m.cursor--
		m.clampCursor()

	case ckb.Down.Match(key):
		m.cursor++
		m.clampCursor()

	case m.kb.Toggle.Match(key):
		name := m.CurrentName()
		if name == "" {
			return nil
		}

		data.ToggleSelected(name)
		m.refresh()

	case m.kb.SelectAll.Match(key):
		data.SetSelected(data.AllNames())
		m.refresh()

	case m.kb.SelectNone.Match(key):
		data.SetSelected(nil)
		m.refresh()

	case m.kb.Find.Match(key):
		return m.startInput(modeFind, "Find:", m.input.Value())

	case m.kb.Select.Match(key):
		return m.startInput(modeSelect, "Select:", "")

	case m.kb.Open.Match(key):
		return m.startInput(modeOpen, "Load:", "")

	case m.kb.Remove.Match(key):
		name := m.CurrentName()
		if name == "" {
			return nil
		}

		data.Remove(name)
		m.refresh()

		return m.cm.SendStatusMessage("removed "+name, statusbar.StyleSuccess)

	case ckb.Escape.Match(key):
		if m.input.Value() != "" {
			m.input.SetValue("")
			m.applyFilter()
		}
	}

	return nil
}

func (m *Model) startInput(mode inputMode, prompt, value string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()

	return m.input.Focus()
}

func (m *Model) stopInput() {
	m.mode = modeNone
	m.input.Blur()
}

func (m *Model) handleInput(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	switch {
	case m.cm.KeyBinds.Escape.Match(key):
		if m.mode != modeFind {
			m.input.SetValue("")
		}

		m.stopInput()

		return nil

	case m.kb.Accept.Match(key):
		return m.accept()
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	if m.mode == modeFind {
		m.applyFilter()
	}

	return cmd
}

func (m *Model) accept() tea.Cmd {
	mode := m.mode
	value := strings.TrimSpace(m.input.Value())

	m.stopInput()

	switch mode {
	case modeFind:
		return nil

	case modeSelect:
		m.input.SetValue("")

		return m.selectByExpression(value)

	case modeOpen:
		m.input.SetValue("")
		if value == "" {
			return nil
		}

		m.cm.Loading = true

		return loadMore(value, m.match)
	}

	return nil
}

func (m *Model) selectByExpression(expression string) tea.Cmd {
	if expression == "" {
		return nil
	}

	f, err := expr.NewTraceFilter(expression)
	if err != nil {
		return common.Err(fmt.Errorf("select: %w", err))
	}

	data := m.cm.Session.Data()

	matched, err := f.Filter(data.All())
	if err != nil {
		return common.Err(fmt.Errorf("select: %w", err))
	}

	names := make([]string, 0, len(matched))
	for _, t := range matched {
		names = append(names, t.Name)
	}

	data.SetSelected(names)
	m.refresh()

	return m.cm.SendStatusMessage(
		fmt.Sprintf("selected %s", pluralize(len(names), "trace")),
		statusbar.StyleSuccess,
	)
}

// loadMore loads the traces at path so that they can be merged into the
// session.
func loadMore(path, match string) tea.Cmd {
	return func() tea.Msg {
		var opts []loader.Opt
		if match != "" {
			opts = append(opts, loader.WithMatch(match))
		}

		l, err := loader.New(path, opts...)
		if err != nil {
			return common.ErrMsg{Err: fmt.Errorf("load %s: %w", path, err)}
		}
		defer l.Close()

		out := l.RunContext(context.Background())
		slog.Debug("loaded more traces",
			slog.String("path", path),
			slog.Int("traces", len(out.Names)),
		)

		return common.LoadedMsg{Output: out, Merge: true}
	}
}

// refresh rebuilds the rows from the session.
func (m *Model) refresh() {
	data := m.cm.Session.Data()
	traces := data.All()

	m.rows = make([]row, 0, len(traces))
	for _, t := range traces {
		r := row{
			name:     t.Name,
			points:   t.Len(),
			selected: data.IsSelected(t.Name),
		}
		if t.Fit != nil {
			r.model = t.Fit.Model
		}

		m.rows = append(m.rows, r)
	}

	m.applyFilter()
}

func (m *Model) applyFilter() {
	names := make([]string, len(m.rows))
	for i, r := range m.rows {
		names[i] = r.name
	}

	m.filtered = filterNames(m.input.Value(), names)
	m.clampCursor()
}

func (m *Model) listHeight() int {
	// Header, blank line, input and footer.
	return max(1, m.height-4)
}

func (m *Model) clampCursor() {
	m.cursor = max(0, min(m.cursor, len(m.filtered)-1))

	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}

	m.offset = max(0, min(m.offset, len(m.filtered)-h))
}

func (m *Model) View() string {
	t := m.cm.Theme

	var b strings.Builder

	header := fmt.Sprintf("%s loaded", pluralize(len(m.rows), "trace"))
	if !m.cm.LastLoad.IsZero() {
		header += fmt.Sprintf(", updated %s", humanize.Time(m.cm.LastLoad))
	}
	if m.cm.Loading {
		header += ", loading" + t.Ellipsis
	}

	b.WriteString(t.TitleStyle.Render(Name))
	b.WriteString(" ")
	b.WriteString(t.SubtleStyle.Render(header))
	b.WriteString("\n\n")

	lines := m.listLines()
	b.WriteString(strings.Join(lines, "\n"))

	for range m.listHeight() - len(lines) {
		b.WriteString("\n")
	}

	b.WriteString("\n")

	if m.mode != modeNone || m.input.Value() != "" {
		b.WriteString(m.input.View())
	}

	b.WriteString("\n")
	b.WriteString(t.SubtleStyle.Render(fmt.Sprintf("%d of %d selected",
		len(m.cm.Session.Data().SelectedNames()), len(m.rows))))

	return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
}

func (m *Model) listLines() []string {
	t := m.cm.Theme

	if len(m.rows) == 0 {
		return []string{t.SubtleStyle.Render("No traces loaded.")}
	}
	if len(m.filtered) == 0 {
		return []string{t.SubtleStyle.Render("Nothing matched.")}
	}

	end := min(len(m.filtered), m.offset+m.listHeight())
	lines := make([]string, 0, end-m.offset)

	for i := m.offset; i < end; i++ {
		fm := m.filtered[i]
		r := m.rows[fm.index]

		check := "[ ]"
		if r.selected {
			check = "[x]"
		}

		nameStyle := t.GenericTextStyle
		gutter := "  "
		if i == m.cursor {
			nameStyle = t.SelectedStyle
			gutter = t.SelectedStyle.Render("│ ")
		}

		name := highlight(r.name, fm.indexes, nameStyle, t.FilterStyle.Underline(true))

		desc := humanize.Comma(int64(r.points)) + " points"
		if r.model != "" {
			desc += ", " + r.model
		}

		lines = append(lines, fmt.Sprintf("%s%s %s  %s",
			gutter, nameStyle.Render(check), name, t.SubtleStyle.Render(desc)))
	}

	return lines
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}

	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), word)
}
