package loader

import (
	"context"
	"errors"
	"time"

	"github.com/macropower/tracefit/pkg/trace"
)

// FileError is a file that could not be loaded.
type FileError struct {
	Err  error
	Name string
}

func (e FileError) Error() string {
	return e.Name + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Output is the result of a single load.
type Output struct {
	Timestamp time.Time
	// Error is set when the load failed as a whole.
	Error error
	// Path is the file or directory that was loaded.
	Path string
	// Names and Traces are the successfully loaded traces, in file order.
	Names  []string
	Traces []*trace.Trace
	// Failed lists the files that could not be read.
	Failed []FileError
	// Changed lists the trace names whose files changed, when the load was
	// triggered by a file event.
	Changed []string
}

// NewOutput creates a new [Output] timestamped with the current time.
func NewOutput(path string, opts ...OutputOpt) Output {
	o := &Output{
		Path:      path,
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return *o
}

type OutputOpt func(*Output)

// WithError sets the error for the output.
func WithError(err error) OutputOpt {
	return func(o *Output) {
		o.Error = err
	}
}

// Err joins the load error with every file error.
func (o Output) Err() error {
	errs := make([]error, 0, len(o.Failed)+1)
	errs = append(errs, o.Error)

	for _, f := range o.Failed {
		errs = append(errs, f)
	}

	return errors.Join(errs...)
}

// Apply stores the loaded traces in the collection. Traces whose files
// changed replace the stored ones. When merge is true, the loaded names are
// added to the collection's names instead of replacing them.
func (o Output) Apply(c *trace.Collection, merge bool) {
	for i, name := range o.Names {
		for _, changed := range o.Changed {
			if changed == name {
				c.Set(o.Traces[i])
			}
		}
	}

	if merge {
		c.Merge(o.Names, o.Traces)

		return
	}

	c.SetTraces(o.Names, o.Traces)
}

// Event represents an event related to loading.
type Event interface {
	GetContext() context.Context
}

type (
	// EventStart indicates that a load has started.
	EventStart struct {
		ctx context.Context //nolint:containedctx // Carried for tracing.
	}

	// EventEnd indicates that a load has ended.
	// It carries the output of the load, which could be an error.
	EventEnd struct {
		ctx context.Context //nolint:containedctx // Carried for tracing.
		Output
	}

	// EventCancel indicates that a load has been canceled by a newer one.
	EventCancel struct {
		ctx context.Context //nolint:containedctx // Carried for tracing.
	}

	// EventConfigure indicates that the loader has been (re-)configured.
	EventConfigure struct {
		ctx context.Context //nolint:containedctx // Carried for tracing.
	}
)

func NewEventStart(ctx context.Context) EventStart {
	return EventStart{ctx: ctx}
}

func NewEventEnd(ctx context.Context, o Output) EventEnd {
	return EventEnd{ctx: ctx, Output: o}
}

func NewEventCancel(ctx context.Context) EventCancel {
	return EventCancel{ctx: ctx}
}

func NewEventConfigure(ctx context.Context) EventConfigure {
	return EventConfigure{ctx: ctx}
}

func (e EventStart) GetContext() context.Context     { return e.ctx }
func (e EventEnd) GetContext() context.Context       { return e.ctx }
func (e EventCancel) GetContext() context.Context    { return e.ctx }
func (e EventConfigure) GetContext() context.Context { return e.ctx }
