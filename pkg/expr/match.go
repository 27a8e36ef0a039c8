package expr

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/google/cel-go/cel"
)

const (
	// DefaultFileMatch matches the files that are loaded as traces.
	DefaultFileMatch = `pathExt(file) in [".csv", ".txt"]`
	// DefaultEventMatch matches the file events that trigger a reload.
	DefaultEventMatch = `op.has(fs.CREATE, fs.WRITE, fs.RENAME)`
)

var (
	fileEnv = MustNewEnvironment(
		cel.Variable("file", cel.StringType),
	)
	eventEnv = MustNewEnvironment(
		cel.Variable("file", cel.StringType),
		cel.Variable("op", cel.IntType),
	)
)

// FileMatcher decides which files are loaded.
type FileMatcher struct {
	program    cel.Program
	expression string
}

// NewFileMatcher compiles the expression into a [FileMatcher]. An empty
// expression uses [DefaultFileMatch].
func NewFileMatcher(expression string) (*FileMatcher, error) {
	if expression == "" {
		expression = DefaultFileMatch
	}

	program, err := fileEnv.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("file match %q: %w", expression, err)
	}

	return &FileMatcher{program: program, expression: expression}, nil
}

// Match reports whether the file matches.
func (m *FileMatcher) Match(file string) (bool, error) {
	return evalBool(m.program, map[string]any{"file": file})
}

func (m *FileMatcher) String() string {
	return m.expression
}

// EventMatcher decides which file events trigger a reload.
type EventMatcher struct {
	program    cel.Program
	expression string
}

// NewEventMatcher compiles the expression into an [EventMatcher]. An empty
// expression uses [DefaultEventMatch].
func NewEventMatcher(expression string) (*EventMatcher, error) {
	if expression == "" {
		expression = DefaultEventMatch
	}

	program, err := eventEnv.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("event match %q: %w", expression, err)
	}

	return &EventMatcher{program: program, expression: expression}, nil
}

// Match reports whether the event matches.
func (m *EventMatcher) Match(file string, op fsnotify.Op) (bool, error) {
	return evalBool(m.program, map[string]any{
		"file": file,
		"op":   int64(op),
	})
}

func (m *EventMatcher) String() string {
	return m.expression
}
