package session

import (
	"errors"
	"log/slog"
	"time"

	"github.com/macropower/tracefit/pkg/trace"
)

// DataKey is the key the loaded traces are stored under.
const DataKey = "data"

// Session is a [State] with typed access to the loaded traces.
type Session struct {
	*State
}

// New creates a new [Session] with an empty [trace.Collection].
func New(r Rerunner) *Session {
	return NewWithData(r, trace.NewCollection())
}

// NewWithData creates a new [Session] that holds the given collection.
func NewWithData(r Rerunner, data *trace.Collection) *Session {
	s := &Session{State: NewState(r)}
	s.Init(map[string]any{DataKey: data})

	return s
}

// Data returns the loaded traces. A new empty collection is stored if the
// session was cleared.
func (s *Session) Data() *trace.Collection {
	v := s.LoadOrInit(DataKey, func() any {
		return trace.NewCollection()
	})

	c, ok := v.(*trace.Collection)
	if !ok {
		c = trace.NewCollection()
		s.Set(DataKey, c)
	}

	return c
}

// Page is a single run of a page against the session.
type Page interface {
	Run(s *Session) error
}

// PageFunc adapts a function to a [Page].
type PageFunc func(s *Session) error

// Run calls f.
func (f PageFunc) Run(s *Session) error {
	return f(s)
}

// SyncAfter wraps a page so that [State.Sync] runs after every run of it.
// The sync runs even if the page fails.
func SyncAfter(p Page) Page {
	return PageFunc(func(s *Session) error {
		err := p.Run(s)

		return errors.Join(err, s.Sync())
	})
}

// Timed wraps a page and logs how long each run took.
func Timed(name string, p Page) Page {
	return PageFunc(func(s *Session) error {
		start := time.Now()
		err := p.Run(s)

		slog.Debug("page run",
			slog.String("page", name),
			slog.Duration("elapsed", time.Since(start)),
		)

		return err
	})
}
