// Package common holds the state and messages shared by the TUI pages.
package common

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/tracefit/pkg/keys"
	"github.com/macropower/tracefit/pkg/loader"
	"github.com/macropower/tracefit/pkg/session"
	"github.com/macropower/tracefit/pkg/ui/statusbar"
	"github.com/macropower/tracefit/pkg/ui/theme"
)

// Loader loads the traces shown by the UI.
type Loader interface {
	RunContext(ctx context.Context) loader.Output
	Path() string
}

// Page is a single page of the TUI. Pages read and write the session, and
// recompute their view from it when they receive a [RerunMsg].
type Page interface {
	// Name is shown in the sidebar.
	Name() string
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
	// KeyBinds are shown in the help view.
	KeyBinds() []keys.KeyBind
	// Capturing reports whether the page is reading text input, in which
	// case global key bindings are not applied.
	Capturing() bool
}

type CommonModel struct {
	Session            *session.Session
	Loader             Loader
	Theme              *theme.Theme
	KeyBinds           *KeyBinds
	StatusMessageTimer *time.Timer
	LastLoad           time.Time
	StatusMessage      StatusMessage
	Width              int
	Height             int
	ShowStatusMessage  bool
	Loading            bool
}

const StatusMessageTimeout = time.Second * 3 // How long to show status messages.

type (
	StatusMessage struct {
		Message string
		Style   statusbar.Style
	}
	StatusMessageTimeoutMsg struct{}

	// RerunMsg asks every page to recompute its view from the session.
	RerunMsg struct{}

	// LoadedMsg carries the output of a load started by a page.
	LoadedMsg struct {
		Output loader.Output
		Merge  bool
	}

	// StatusMsg asks for a message to be shown in the status bar.
	StatusMsg StatusMessage
)

func (m *CommonModel) GetStatusBar() *statusbar.Renderer {
	if m.ShowStatusMessage && m.StatusMessage.Message != "" {
		return statusbar.NewRenderer(m.Theme, m.Width,
			statusbar.WithMessage(m.StatusMessage.Message, m.StatusMessage.Style))
	}

	return statusbar.NewRenderer(m.Theme, m.Width)
}

// SendStatusMessage shows a message in the status bar until it times out.
func (m *CommonModel) SendStatusMessage(msg string, style statusbar.Style) tea.Cmd {
	m.ShowStatusMessage = true
	m.StatusMessage = StatusMessage{
		Message: msg,
		Style:   style,
	}
	if m.StatusMessageTimer != nil {
		m.StatusMessageTimer.Stop()
	}

	m.StatusMessageTimer = time.NewTimer(StatusMessageTimeout)

	return WaitForStatusMessageTimeout(m.StatusMessageTimer)
}

type ErrMsg struct{ Err error } //nolint:errname // Tea message.

func (e ErrMsg) Error() string { return e.Err.Error() }

// Err returns a command that reports err.
func Err(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrMsg{Err: err}
	}
}

func WaitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C

		return StatusMessageTimeoutMsg{}
	}
}

// Status returns a command that shows msg in the status bar.
func Status(msg string, style statusbar.Style) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Message: msg, Style: style}
	}
}

// Rerun returns a command that sends a [RerunMsg].
func Rerun() tea.Msg {
	return RerunMsg{}
}

type KeyBinds struct {
	Quit    *keys.KeyBind `json:"quit,omitempty"`
	Suspend *keys.KeyBind `json:"suspend,omitempty"`
	Reload  *keys.KeyBind `json:"reload,omitempty"`
	Help    *keys.KeyBind `json:"help,omitempty"`
	Error   *keys.KeyBind `json:"error,omitempty"`
	Escape  *keys.KeyBind `json:"escape,omitempty"`
	Clear   *keys.KeyBind `json:"clear,omitempty"`

	// Navigation.
	Up   *keys.KeyBind `json:"up,omitempty"`
	Down *keys.KeyBind `json:"down,omitempty"`
	Prev *keys.KeyBind `json:"prev,omitempty"`
	Next *keys.KeyBind `json:"next,omitempty"`
}

func (kb *KeyBinds) EnsureDefaults() {
	keys.SetDefaultBind(&kb.Quit, keys.NewBind("quit", keys.New("q")))
	// Always ensure that ctrl+c is bound to quit.
	kb.Quit.AddKey(keys.New("ctrl+c", keys.WithAlias("⌃c"), keys.Hidden()))

	keys.SetDefaultBind(&kb.Suspend,
		keys.NewBind("suspend",
			keys.New("ctrl+z", keys.WithAlias("⌃z"), keys.Hidden()),
		))
	keys.SetDefaultBind(&kb.Reload,
		keys.NewBind("reload files",
			keys.New("r"),
		))
	keys.SetDefaultBind(&kb.Escape,
		keys.NewBind("go back",
			keys.New("esc"),
		))
	keys.SetDefaultBind(&kb.Help,
		keys.NewBind("toggle help",
			keys.New("?"),
		))
	keys.SetDefaultBind(&kb.Error,
		keys.NewBind("toggle error",
			keys.New("!"),
		))
	keys.SetDefaultBind(&kb.Clear,
		keys.NewBind("clear session",
			keys.New("ctrl+r", keys.WithAlias("⌃r")),
		))

	keys.SetDefaultBind(&kb.Up,
		keys.NewBind("move up",
			keys.New("up", keys.WithAlias("↑")),
			keys.New("k"),
		))
	keys.SetDefaultBind(&kb.Down,
		keys.NewBind("move down",
			keys.New("down", keys.WithAlias("↓")),
			keys.New("j"),
		))
	keys.SetDefaultBind(&kb.Prev,
		keys.NewBind("previous page",
			keys.New("shift+tab", keys.WithAlias("⇧+tab")),
		))
	keys.SetDefaultBind(&kb.Next,
		keys.NewBind("next page",
			keys.New("tab"),
		))
}

func (kb *KeyBinds) GetKeyBinds() []keys.KeyBind {
	return keys.Deref(
		kb.Quit,
		kb.Suspend,
		kb.Reload,
		kb.Escape,
		kb.Help,
		kb.Error,
		kb.Clear,
		kb.Up,
		kb.Down,
		kb.Prev,
		kb.Next,
	)
}
