// Package fitter implements the page that fits models to traces.
package fitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/tracefit/pkg/export"
	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/keys"
	"github.com/macropower/tracefit/pkg/trace"
	"github.com/macropower/tracefit/pkg/ui/common"
	"github.com/macropower/tracefit/pkg/ui/plot"
	"github.com/macropower/tracefit/pkg/ui/statusbar"
)

const (
	Name = "Fit"

	// CurrentKey is the session key of the name of the trace being fitted.
	CurrentKey = "fit.current"
	// ModelKey is the session key of the model name.
	ModelKey = "fit.model"

	DefaultPlotHeight = 12
)

// ErrNoFits is returned when an action needs fitted traces and there are none.
var ErrNoFits = errors.New("there are no fits")

type Config struct {
	CommonModel *common.CommonModel
	KeyBinds    *KeyBinds
	Fit         *fit.Config
	// Clipboard writes to the system clipboard. Defaults to
	// [clipboard.WriteAll].
	Clipboard  func(text string) error
	PlotHeight int
}

// Model shows one trace at a time with its fit.
type Model struct {
	cm        *common.CommonModel
	kb        *KeyBinds
	cfg       *fit.Config
	clipboard func(text string) error

	current    *trace.Trace
	names      []string
	index      int
	plotHeight int
	width      int
	height     int
}

func NewModel(c Config) *Model {
	cfg := c.Fit
	if cfg == nil {
		cfg = fit.NewConfig()
	}

	cb := c.Clipboard
	if cb == nil {
		cb = clipboard.WriteAll
	}

	ph := c.PlotHeight
	if ph <= 0 {
		ph = DefaultPlotHeight
	}

	m := &Model{
		cm:         c.CommonModel,
		kb:         c.KeyBinds,
		cfg:        cfg,
		clipboard:  cb,
		plotHeight: ph,
	}
	m.refresh()

	return m
}

func (m *Model) Name() string { return Name }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) Capturing() bool { return false }

func (m *Model) KeyBinds() []keys.KeyBind {
	return m.kb.GetKeyBinds()
}

// CurrentName returns the name of the trace being fitted.
func (m *Model) CurrentName() string {
	v, _ := m.cm.Session.Lookup(CurrentKey)
	name, _ := v.(string)

	return name
}

// ModelName returns the name of the model used for fitting.
func (m *Model) ModelName() string {
	v := m.cm.Session.LoadOrInit(ModelKey, func() any {
		return m.cfg.Model
	})

	name, ok := v.(string)
	if !ok || name == "" {
		return fit.ModelLine
	}

	return name
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case common.RerunMsg:
		m.refresh()

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		m.refresh()

		return cmd
	}

	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	data := m.cm.Session.Data()

	switch {
	case m.kb.PrevTrace.Match(key), m.cm.KeyBinds.Up.Match(key):
		m.step(-1)

	case m.kb.NextTrace.Match(key), m.cm.KeyBinds.Down.Match(key):
		m.step(1)

	case m.kb.Fit.Match(key):
		name := m.CurrentName()
		if name == "" {
			return nil
		}

		return m.fit(name)

	case m.kb.FitAll.Match(key):
		return m.fit()

	case m.kb.Clear.Match(key):
		name := m.CurrentName()
		if name == "" {
			return nil
		}

		err := data.ClearFit(name)
		if err != nil {
			return common.Err(err)
		}

	case m.kb.ClearAll.Match(key):
		data.ClearAllFits()

		return common.Status("cleared all fits", statusbar.StyleNormal)

	case m.kb.Model.Match(key):
		i := slices.Index(fit.ModelNames, m.ModelName())
		next := fit.ModelNames[(i+1)%len(fit.ModelNames)]
		m.cm.Session.Set(ModelKey, next)

		return common.Status("model: "+next, statusbar.StyleNormal)

	case m.kb.Export.Match(key):
		return exportFits(m.cfg.ExportPath, data.All())

	case m.kb.Copy.Match(key):
		return m.copyParams()
	}

	return nil
}

func (m *Model) step(n int) {
	if len(m.names) == 0 {
		return
	}

	i := (m.index + n + len(m.names)) % len(m.names)
	m.cm.Session.Set(CurrentKey, m.names[i])
}

func (m *Model) fit(names ...string) tea.Cmd {
	model, err := fit.ModelByName(m.ModelName())
	if err != nil {
		return common.Err(err)
	}

	results, err := fit.Apply(context.Background(), model, m.cm.Session.Data(), names...)
	if err != nil {
		return common.Err(err)
	}

	if len(results) == 1 {
		r := results[0]

		return common.Status(
			fmt.Sprintf("fitted %s: R² %.4f", r.Name, r.RSquared),
			statusbar.StyleSuccess,
		)
	}

	return common.Status(fmt.Sprintf("fitted %d traces", len(results)), statusbar.StyleSuccess)
}

func (m *Model) copyParams() tea.Cmd {
	var results []*fit.Result

	for _, t := range m.cm.Session.Data().All() {
		if r := fit.NewResult(t); r != nil {
			results = append(results, r)
		}
	}

	if len(results) == 0 {
		return common.Err(fmt.Errorf("copy: %w", ErrNoFits))
	}

	var b bytes.Buffer

	err := export.Params(&b, results)
	if err != nil {
		return common.Err(err)
	}

	err = m.clipboard(b.String())
	if err != nil {
		return common.Err(fmt.Errorf("copy to clipboard: %w", err))
	}

	return common.Status(fmt.Sprintf("copied %d fits", len(results)), statusbar.StyleSuccess)
}

// exportFits writes the traces to path in the format given by its extension.
func exportFits(path string, traces []*trace.Trace) tea.Cmd {
	return func() tea.Msg {
		if !slices.ContainsFunc(traces, (*trace.Trace).HasFit) {
			return common.ErrMsg{Err: fmt.Errorf("export: %w", ErrNoFits)}
		}

		s, err := export.ByFormat(strings.TrimPrefix(filepath.Ext(path), "."))
		if err != nil {
			return common.ErrMsg{Err: fmt.Errorf("export %s: %w", path, err)}
		}

		f, err := os.Create(path) //nolint:gosec // User provided path.
		if err != nil {
			return common.ErrMsg{Err: fmt.Errorf("export: %w", err)}
		}

		err = s.Serialize(f, traces)
		if err != nil {
			return common.ErrMsg{Err: errors.Join(fmt.Errorf("export %s: %w", path, err), f.Close())}
		}

		err = f.Close()
		if err != nil {
			return common.ErrMsg{Err: fmt.Errorf("export: %w", err)}
		}

		return common.StatusMsg{
			Message: "exported to " + path,
			Style:   statusbar.StyleSuccess,
		}
	}
}

// refresh reads the trace names and the current trace from the session. The
// current name falls back to the first name when it is no longer loaded.
func (m *Model) refresh() {
	m.ModelName()

	data := m.cm.Session.Data()
	m.names = data.AllNames()

	name := m.CurrentName()
	m.index = slices.Index(m.names, name)

	if m.index < 0 {
		m.index = 0
		name = ""

		if len(m.names) > 0 {
			name = m.names[0]
		}

		m.cm.Session.Set(CurrentKey, name)
	}

	m.current = nil
	if name != "" {
		t, err := data.Get(name)
		if err == nil {
			m.current = t
		}
	}
}

func (m *Model) View() string {
	t := m.cm.Theme

	var b strings.Builder

	b.WriteString(t.TitleStyle.Render(Name))
	b.WriteString(" ")
	b.WriteString(t.SubtleStyle.Render("model: " + m.ModelName()))
	b.WriteString("\n\n")

	plotWidth := max(10, m.width-12)
	plotHeight := max(4, min(m.plotHeight, m.height-10))

	if m.current == nil {
		b.WriteString(plot.Message("No traces loaded.", plotWidth, plotHeight))

		return b.String()
	}

	b.WriteString(m.selectBox())
	b.WriteString("\n\n")
	b.WriteString(m.fitInfo())
	b.WriteString("\n\n")

	series := []plot.Series{{Name: "raw", Y: m.current.Y}}
	if m.current.HasFit() {
		series = append(series, plot.Series{Name: "fit", Y: m.current.YFit})
	}

	chart, err := plot.Render(plot.Options{
		Width:  plotWidth,
		Height: plotHeight,
	}, series...)
	if err != nil {
		chart = plot.Message(err.Error(), plotWidth, plotHeight)
	}

	b.WriteString(chart)

	return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
}

func (m *Model) selectBox() string {
	t := m.cm.Theme

	pos := fmt.Sprintf("%d/%d", m.index+1, len(m.names))

	return t.SubtleStyle.Render("‹ ") +
		t.SelectedStyle.Render(m.current.Name) +
		t.SubtleStyle.Render(" › "+pos)
}

func (m *Model) fitInfo() string {
	t := m.cm.Theme

	if m.current.Fit == nil {
		return t.SubtleStyle.Render("Not fitted.")
	}

	info := m.current.Fit
	parts := make([]string, 0, len(info.Params)+2)

	for _, p := range info.Params {
		parts = append(parts, fmt.Sprintf("%s = %.4g", p.Name, p.Value))
	}

	parts = append(parts,
		fmt.Sprintf("R² = %.4f", info.RSquared),
		fmt.Sprintf("RMSE = %.4g", info.RMSE),
	)

	return t.GenericTextStyle.Render(info.Model + ": " + strings.Join(parts, "  "))
}
