// Package ui provides the main UI for the tracefit application.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/tracefit/pkg/expr"
	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/keys"
	"github.com/macropower/tracefit/pkg/loader"
	"github.com/macropower/tracefit/pkg/session"
	"github.com/macropower/tracefit/pkg/trace"
	"github.com/macropower/tracefit/pkg/ui/common"
	"github.com/macropower/tracefit/pkg/ui/files"
	"github.com/macropower/tracefit/pkg/ui/fitter"
	"github.com/macropower/tracefit/pkg/ui/overlay"
	"github.com/macropower/tracefit/pkg/ui/plotter"
	"github.com/macropower/tracefit/pkg/ui/sidebar"
	"github.com/macropower/tracefit/pkg/ui/statusbar"
	"github.com/macropower/tracefit/pkg/ui/theme"
)

// SyncInterval is how often the session is checked for changes made outside
// of the UI, such as by the MCP server.
const SyncInterval = time.Second

type (
	syncTickMsg struct{}

	// applyLoadMsg applies a finished load once the minimum delay passed.
	applyLoadMsg struct {
		output loader.Output
		merge  bool
	}
)

// rerunQueue records rerun requests from [session.State.Sync]. The request is
// turned into a [common.RerunMsg] after the current message is handled, so
// that no page runs while another is still running.
type rerunQueue struct {
	pending atomic.Bool
}

func (q *rerunQueue) RequestRerun() {
	q.pending.Store(true)
}

func (q *rerunQueue) take() bool {
	return q.pending.Swap(false)
}

type options struct {
	data      *trace.Collection
	loader    common.Loader
	fit       *fit.Config
	clipboard func(string) error
	selection *expr.TraceFilter
	match     string
}

// Opt configures a [Model].
type Opt func(*options)

// WithData sets the traces the session starts with.
func WithData(c *trace.Collection) Opt {
	return func(o *options) {
		o.data = c
	}
}

// WithLoader sets the loader used on start and on reload.
func WithLoader(l common.Loader) Opt {
	return func(o *options) {
		o.loader = l
	}
}

// WithFitConfig sets the fit configuration.
func WithFitConfig(c *fit.Config) Opt {
	return func(o *options) {
		o.fit = c
	}
}

// WithMatch sets the file match expression used when loading more files.
func WithMatch(expression string) Opt {
	return func(o *options) {
		o.match = expression
	}
}

// WithSelect selects the loaded traces that match the filter.
func WithSelect(f *expr.TraceFilter) Opt {
	return func(o *options) {
		o.selection = f
	}
}

// WithClipboard overrides the function used to copy to the clipboard.
func WithClipboard(fn func(string) error) Opt {
	return func(o *options) {
		o.clipboard = fn
	}
}

// NewProgram returns a new Tea program for the model.
func NewProgram(m *Model, opts ...tea.ProgramOption) *tea.Program {
	slog.Debug("starting tracefit ui")

	return tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
}

// Model is the top-level application model. It owns the session, runs the
// pages against it and turns session changes into reruns.
type Model struct {
	err       error
	loadStart time.Time
	cm        *common.CommonModel
	cfg       *Config
	selection *expr.TraceFilter
	rerun     *rerunQueue
	sidebar   *sidebar.Sidebar
	overlay   *overlay.Overlay
	spinner   spinner.Model
	pages     []common.Page
	showHelp  bool
	showError bool
}

func NewModel(cfg *Config, opts ...Opt) *Model {
	cfg.EnsureDefaults()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.data == nil {
		o.data = trace.NewCollection()
	}

	q := &rerunQueue{}

	cm := &common.CommonModel{
		Session:  session.NewWithData(q, o.data),
		Loader:   o.loader,
		Theme:    theme.New(cfg.Theme),
		KeyBinds: cfg.KeyBinds.Common,
	}

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = cm.Theme.GenericTextStyle

	pages := []common.Page{
		files.NewModel(files.Config{
			CommonModel: cm,
			KeyBinds:    cfg.KeyBinds.Files,
			Match:       o.match,
		}),
		fitter.NewModel(fitter.Config{
			CommonModel: cm,
			KeyBinds:    cfg.KeyBinds.Fit,
			Fit:         o.fit,
			Clipboard:   o.clipboard,
			PlotHeight:  *cfg.PlotHeight,
		}),
		plotter.NewModel(plotter.Config{
			CommonModel: cm,
			KeyBinds:    cfg.KeyBinds.Plot,
			PlotHeight:  *cfg.PlotHeight,
		}),
	}

	names := make([]string, len(pages))
	for i, p := range pages {
		names[i] = p.Name()
	}

	m := &Model{
		cm:        cm,
		cfg:       cfg,
		selection: o.selection,
		rerun:     q,
		sidebar:   sidebar.New(cm.Theme, names...),
		overlay:   overlay.New(cm.Theme),
		spinner:   sp,
		pages:     pages,
	}

	err := m.preselect(o.data.All())
	if err != nil {
		m.err = err
	}

	// The first sync records the initial hash.
	err = cm.Session.Sync()
	if err != nil {
		slog.Error("sync session", slog.Any("err", err))
	}

	q.take()

	return m
}

// Session returns the session shared by every page.
func (m *Model) Session() *session.Session {
	return m.cm.Session
}

// CurrentPage returns the page that is shown.
func (m *Model) CurrentPage() common.Page {
	return m.pages[m.sidebar.Current()]
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{syncTick()}

	for _, p := range m.pages {
		cmds = append(cmds, p.Init())
	}

	cmds = append(cmds, m.load())

	return tea.Batch(cmds...)
}

func (m *Model) load() tea.Cmd {
	l := m.cm.Loader
	if l == nil {
		return nil
	}

	return func() tea.Msg {
		// Events are delivered through the loader's subscribers.
		go l.RunContext(context.Background())

		return nil
	}
}

func syncTick() tea.Cmd {
	return tea.Tick(SyncInterval, func(time.Time) tea.Msg {
		return syncTickMsg{}
	})
}

//nolint:ireturn // Must satisfy [tea.Model].
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.update(msg)}

	if m.rerun.take() {
		cmds = append(cmds, common.Rerun)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	// Window size is received when starting up and on every resize.
	case tea.WindowSizeMsg:
		m.cm.Width = msg.Width
		m.cm.Height = msg.Height
		m.resize()

		return nil

	case common.RerunMsg:
		return m.runAll(msg)

	case syncTickMsg:
		m.run("sync", func() tea.Cmd { return nil })

		return syncTick()

	case loader.EventStart:
		m.cm.Loading = true
		m.loadStart = time.Now()

		return m.spinner.Tick

	case loader.EventCancel:
		m.cm.Loading = false

		return nil

	case loader.EventEnd:
		return m.delayLoad(applyLoadMsg{output: msg.Output})

	case common.LoadedMsg:
		return m.delayLoad(applyLoadMsg{output: msg.Output, merge: msg.Merge})

	case applyLoadMsg:
		return m.applyLoad(msg.output, msg.merge)

	case common.StatusMsg:
		return m.cm.SendStatusMessage(msg.Message, msg.Style)

	case common.StatusMessageTimeoutMsg:
		m.cm.ShowStatusMessage = false

		return nil

	case common.ErrMsg:
		m.err = msg.Err
		m.showError = true

		return nil

	case spinner.TickMsg:
		if !m.cm.Loading {
			return nil
		}

		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return cmd
	}

	return m.runPage(m.CurrentPage(), msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	kb := m.cfg.KeyBinds.Common

	// Always allow suspend to work regardless of current focus.
	if kb.Suspend.Match(key) {
		return tea.Suspend
	}

	if m.matchAction(kb.Error, key) {
		m.showError = !m.showError && m.err != nil

		return nil
	}

	if m.showError {
		// Any key exits the error view.
		m.showError = false

		if kb.Escape.Match(key) {
			return nil
		}
	}

	switch {
	case m.matchAction(kb.Quit, key):
		return tea.Quit

	case m.matchAction(kb.Help, key):
		m.showHelp = !m.showHelp
		m.resize()

		return nil

	case m.matchAction(kb.Next, key):
		m.sidebar.Next()

		return nil

	case m.matchAction(kb.Prev, key):
		m.sidebar.Prev()

		return nil

	case m.matchAction(kb.Reload, key):
		if m.cm.Loader == nil {
			return nil
		}

		return m.load()

	case m.matchAction(kb.Clear, key):
		return m.run("clear", func() tea.Cmd {
			m.cm.Session.Clear()
			m.cm.Session.Data()
			m.cm.LastLoad = time.Time{}

			return m.cm.SendStatusMessage("cleared session", statusbar.StyleNormal)
		})

	case m.showHelp && kb.Escape.Match(key) && !m.CurrentPage().Capturing():
		m.showHelp = false
		m.resize()

		return nil
	}

	return m.runPage(m.CurrentPage(), msg)
}

func (m *Model) matchAction(kb *keys.KeyBind, key string) bool {
	if m.CurrentPage().Capturing() && keys.IsTextInputAction(key) {
		return false
	}

	return kb.Match(key)
}

// run runs fn as a page run, so that changes it makes to the session cause a
// rerun.
func (m *Model) run(name string, fn func() tea.Cmd) tea.Cmd {
	var cmd tea.Cmd

	p := session.SyncAfter(session.Timed(name, session.PageFunc(func(*session.Session) error {
		cmd = fn()

		return nil
	})))

	err := p.Run(m.cm.Session)
	if err != nil {
		return tea.Batch(cmd, common.Err(fmt.Errorf("sync session: %w", err)))
	}

	return cmd
}

func (m *Model) runPage(p common.Page, msg tea.Msg) tea.Cmd {
	return m.run(p.Name(), func() tea.Cmd {
		return p.Update(msg)
	})
}

// runAll runs every page in a single run.
func (m *Model) runAll(msg tea.Msg) tea.Cmd {
	return m.run("all", func() tea.Cmd {
		cmds := make([]tea.Cmd, 0, len(m.pages))
		for _, p := range m.pages {
			cmds = append(cmds, p.Update(msg))
		}

		return tea.Batch(cmds...)
	})
}

func (m *Model) delayLoad(msg applyLoadMsg) tea.Cmd {
	remaining := *m.cfg.MinimumDelay - time.Since(m.loadStart)
	if m.loadStart.IsZero() || remaining <= 0 {
		return m.applyLoad(msg.output, msg.merge)
	}

	return tea.Tick(remaining, func(time.Time) tea.Msg {
		return msg
	})
}

func (m *Model) applyLoad(out loader.Output, merge bool) tea.Cmd {
	m.cm.Loading = false
	m.loadStart = time.Time{}

	return m.run("load", func() tea.Cmd {
		if out.Error != nil {
			m.err = out.Err()
			m.showError = true

			return m.cm.SendStatusMessage("load failed", statusbar.StyleError)
		}

		out.Apply(m.cm.Session.Data(), merge)
		m.cm.LastLoad = out.Timestamp

		err := m.preselect(out.Traces)
		if err != nil {
			m.err = err

			return m.cm.SendStatusMessage("select failed", statusbar.StyleError)
		}

		if len(out.Failed) > 0 {
			m.err = out.Err()

			return m.cm.SendStatusMessage(
				fmt.Sprintf("loaded %d traces, %d failed", len(out.Names), len(out.Failed)),
				statusbar.StyleError,
			)
		}

		return m.cm.SendStatusMessage(
			fmt.Sprintf("loaded %d traces", len(out.Names)),
			statusbar.StyleSuccess,
		)
	})
}

// preselect adds the traces matching the selection filter to the selected
// traces.
func (m *Model) preselect(traces []*trace.Trace) error {
	if m.selection == nil || len(traces) == 0 {
		return nil
	}

	matched, err := m.selection.Filter(traces)
	if err != nil {
		return fmt.Errorf("select %s: %w", m.selection, err)
	}

	data := m.cm.Session.Data()

	selected := data.SelectedNames()
	for _, t := range matched {
		if !slices.Contains(selected, t.Name) {
			selected = append(selected, t.Name)
		}
	}

	data.SetSelected(selected)

	return nil
}

func (m *Model) helpRenderer() *statusbar.HelpRenderer {
	kb := m.cfg.KeyBinds.Common

	kbr := &keys.KeyBindRenderer{}
	kbr.AddColumn(keys.Deref(kb.Up, kb.Down, kb.Next, kb.Prev)...)
	kbr.AddColumn(keys.Deref(kb.Reload, kb.Clear, kb.Escape, kb.Error, kb.Help, kb.Quit)...)
	kbr.AddColumn(m.CurrentPage().KeyBinds()...)

	return statusbar.NewHelpRenderer(m.cm.Theme, kbr, m.CurrentPage().Name())
}

func (m *Model) helpHeight() int {
	if !m.showHelp {
		return 0
	}

	return m.helpRenderer().Height(m.cm.Width)
}

func (m *Model) resize() {
	// Status bar.
	height := max(0, m.cm.Height-1-m.helpHeight())

	m.sidebar.SetHeight(height)
	width := max(0, m.cm.Width-m.sidebar.Width()-1)

	for _, p := range m.pages {
		p.SetSize(width, height)
	}

	m.overlay.SetSize(m.cm.Width, m.cm.Height)
}

func (m *Model) View() string {
	page := m.CurrentPage()

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		m.sidebar.View(),
		" ",
		page.View(),
	)

	parts := []string{main}

	if m.showHelp {
		parts = append(parts, m.helpRenderer().Render(m.cm.Width))
	}

	parts = append(parts, m.statusBar())

	s := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.showError && m.err != nil {
		s = m.overlay.PlaceError(s, m.err)
	}

	return strings.TrimRight(s, " \n")
}

func (m *Model) statusBar() string {
	note := m.sidebar.CurrentName()
	if m.cm.Loading {
		note = m.spinner.View() + " loading" + m.cm.Theme.Ellipsis
	} else if m.err != nil {
		note += " (press ! for the last error)"
	}

	data := m.cm.Session.Data()
	pos := fmt.Sprintf("%d/%d selected", len(data.SelectedNames()), data.Len())

	return m.cm.GetStatusBar().Render(note, pos)
}
