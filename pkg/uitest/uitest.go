package uitest

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/tracefit/pkg/session"
	"github.com/macropower/tracefit/pkg/trace"
	"github.com/macropower/tracefit/pkg/ui/common"
	"github.com/macropower/tracefit/pkg/ui/theme"
)

// Terminal sizes used by the UI tests. Compact is the smallest size the plot
// and the file list must both fit in.
const (
	CompactWidth  = 80
	CompactHeight = 24

	StandardWidth  = 120
	StandardHeight = 40
)

// Size is a terminal size.
type Size struct {
	Width  int
	Height int
}

var (
	Compact  = Size{CompactWidth, CompactHeight}
	Standard = Size{StandardWidth, StandardHeight}
)

// Msg returns the resize message a program receives for s.
func (s Size) Msg() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: s.Width, Height: s.Height}
}

// SetupColorProfile sets the color profile to TrueColor for consistent test output.
// Call this at the start of tests that involve styled output.
func SetupColorProfile() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

// Plain strips all ANSI sequences from s.
func Plain(s string) string {
	return ansi.Strip(s)
}

// Traces generates n noisy linear traces named test_file_<i>.csv.
func Traces(n int) []*trace.Trace {
	opts := trace.DefaultGenerateOptions
	opts.Seed = 1
	opts.Points = 20

	return trace.Generate(n, opts)
}

// NewCommonModel creates a [common.CommonModel] whose session holds the given
// traces. No traces are selected.
func NewCommonModel(tb testing.TB, traces ...*trace.Trace) *common.CommonModel {
	tb.Helper()

	names := make([]string, len(traces))
	for i, t := range traces {
		require.NoError(tb, t.Validate())

		names[i] = t.Name
	}

	c := trace.NewCollection()
	c.SetTraces(names, traces)

	kb := &common.KeyBinds{}
	kb.EnsureDefaults()

	s := session.NewWithData(nil, c)
	require.NoError(tb, s.Sync())

	return &common.CommonModel{
		Session:  s,
		Theme:    theme.Default,
		KeyBinds: kb,
		Width:    StandardWidth,
		Height:   StandardHeight,
	}
}

var keyTypes = map[string]tea.KeyType{
	"enter":     tea.KeyEnter,
	"esc":       tea.KeyEsc,
	"up":        tea.KeyUp,
	"down":      tea.KeyDown,
	"left":      tea.KeyLeft,
	"right":     tea.KeyRight,
	"tab":       tea.KeyTab,
	"shift+tab": tea.KeyShiftTab,
	"backspace": tea.KeyBackspace,
	"delete":    tea.KeyDelete,
	" ":         tea.KeySpace,
	"ctrl+c":    tea.KeyCtrlC,
	"ctrl+r":    tea.KeyCtrlR,
	"ctrl+z":    tea.KeyCtrlZ,
}

// Key returns the [tea.KeyMsg] whose String method returns key.
func Key(key string) tea.KeyMsg {
	if kt, ok := keyTypes[key]; ok {
		msg := tea.KeyMsg{Type: kt}
		if kt == tea.KeySpace {
			msg.Runes = []rune{' '}
		}

		return msg
	}

	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// Type returns one [tea.KeyMsg] per rune of s.
func Type(s string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(s))
	for _, r := range s {
		msgs = append(msgs, Key(string(r)))
	}

	return msgs
}

// Run sends each message to the page the way the TUI does, syncing the
// session after every update. It returns the commands the page produced.
func Run(tb testing.TB, cm *common.CommonModel, page common.Page, msgs ...tea.Msg) []tea.Cmd {
	tb.Helper()

	var cmds []tea.Cmd

	for _, msg := range msgs {
		var cmd tea.Cmd

		err := session.SyncAfter(session.PageFunc(func(*session.Session) error {
			cmd = page.Update(msg)

			return nil
		})).Run(cm.Session)
		require.NoError(tb, err)

		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return cmds
}

// Exec runs each command and returns the messages that are not nil. Batches
// are flattened.
func Exec(cmds ...tea.Cmd) []tea.Msg {
	var msgs []tea.Msg

	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}

		switch msg := cmd().(type) {
		case nil:
		case tea.BatchMsg:
			msgs = append(msgs, Exec(msg...)...)
		default:
			msgs = append(msgs, msg)
		}
	}

	return msgs
}

// pageModel runs a single page as a program.
type pageModel struct {
	cm   *common.CommonModel
	page common.Page
}

func (m pageModel) Init() tea.Cmd {
	return m.page.Init()
}

//nolint:ireturn // Must satisfy [tea.Model].
func (m pageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cm.Width, m.cm.Height = msg.Width, msg.Height
		m.page.SetSize(msg.Width, msg.Height)

		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd

	err := session.SyncAfter(session.PageFunc(func(*session.Session) error {
		cmd = m.page.Update(msg)

		return nil
	})).Run(m.cm.Session)
	if err != nil {
		return m, tea.Quit
	}

	return m, cmd
}

func (m pageModel) View() string {
	return m.page.View()
}

// NewPageModel runs the page as a program with the given terminal size.
func NewPageModel(tb testing.TB, cm *common.CommonModel, page common.Page, size Size) *teatest.TestModel {
	tb.Helper()

	return NewTestModel(tb, pageModel{cm: cm, page: page}, size)
}

// NewTestModel creates a new test model with the given terminal size.
func NewTestModel(tb testing.TB, m tea.Model, size Size) *teatest.TestModel {
	tb.Helper()

	return teatest.NewTestModel(
		tb, m,
		teatest.WithInitialTermSize(size.Width, size.Height),
	)
}

// WaitFor waits for a condition to be met in the output.
func WaitFor(
	tb testing.TB,
	r io.Reader,
	condition func([]byte) bool,
	opts ...teatest.WaitForOption,
) {
	tb.Helper()
	teatest.WaitFor(tb, r, condition, opts...)
}

// WaitForText waits until the plain output contains every string.
func WaitForText(tb testing.TB, r io.Reader, want ...string) {
	tb.Helper()

	WaitFor(tb, r, func(b []byte) bool {
		out := Plain(string(b))
		for _, w := range want {
			if !strings.Contains(out, w) {
				return false
			}
		}

		return true
	}, teatest.WithDuration(5*time.Second))
}

// GetFinalOutput reads all output after the program finishes.
func GetFinalOutput(tb testing.TB, tm *teatest.TestModel, timeout time.Duration) string {
	tb.Helper()

	return string(readAll(tb, tm.FinalOutput(tb, teatest.WithFinalTimeout(timeout))))
}

func readAll(tb testing.TB, r io.Reader) []byte {
	tb.Helper()

	b, err := io.ReadAll(r)
	if err != nil {
		tb.Fatal(err)
	}

	return b
}
