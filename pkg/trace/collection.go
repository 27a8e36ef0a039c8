package trace

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
)

// ErrTraceNotFound is returned when a trace name is not in the [Collection].
var ErrTraceNotFound = errors.New("trace not found")

// Collection is a typed container for loaded traces.
//
// It tracks the traces by name, the ordered names of the most recent load, and
// the names selected by the user. Traces are copied on the way in and on the
// way out, so callers never share memory with the collection.
type Collection struct {
	traces   map[string]*Trace
	all      []string
	selected []string
	mu       sync.RWMutex
}

// NewCollection creates an empty [Collection].
func NewCollection() *Collection {
	return &Collection{
		traces: make(map[string]*Trace),
	}
}

// SetTraces pairs names and traces positionally. Names that are already stored
// are skipped so that existing fits survive a reload. The names become the
// collection's list of all names.
func (c *Collection) SetTraces(names []string, traces []*Trace) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.addTraces(names, traces)
	c.all = slices.Clone(names)
}

// Merge is like [Collection.SetTraces], but new names are appended to the
// list of all names instead of replacing it.
func (c *Collection) Merge(names []string, traces []*Trace) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.addTraces(names, traces)

	for _, name := range names {
		if !slices.Contains(c.all, name) {
			c.all = append(c.all, name)
		}
	}
}

func (c *Collection) addTraces(names []string, traces []*Trace) {
	for i := range min(len(names), len(traces)) {
		if _, ok := c.traces[names[i]]; ok {
			continue
		}
		if traces[i] == nil {
			continue
		}

		t := traces[i].Clone()
		t.Name = names[i]
		c.traces[names[i]] = t
	}
}

// Get returns a copy of the named trace.
func (c *Collection) Get(name string) (*Trace, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.traces[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTraceNotFound, name)
	}

	return t.Clone(), nil
}

// Has reports whether the named trace is stored.
func (c *Collection) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.traces[name]

	return ok
}

// Set inserts or replaces a trace by its name.
func (c *Collection) Set(t *Trace) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.traces[t.Name] = t.Clone()
}

// Update applies fn to the stored trace under the write lock. The trace is
// only replaced when fn succeeds.
func (c *Collection) Update(name string, fn func(t *Trace) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.traces[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTraceNotFound, name)
	}

	work := t.Clone()

	err := fn(work)
	if err != nil {
		return err
	}

	c.traces[name] = work

	return nil
}

// Remove deletes the named trace. Absent names are ignored.
func (c *Collection) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.traces, name)

	c.all = slices.DeleteFunc(c.all, func(n string) bool { return n == name })
	c.selected = slices.DeleteFunc(c.selected, func(n string) bool { return n == name })
}

// Len returns the number of stored traces.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.traces)
}

// All returns copies of every stored trace, in [Collection.Names] order.
func (c *Collection) All() []*Trace {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := c.namesLocked()

	out := make([]*Trace, len(names))
	for i, name := range names {
		out[i] = c.traces[name].Clone()
	}

	return out
}

// Names returns the name of every stored trace. Names from
// [Collection.AllNames] come first, in that order, followed by any others
// sorted by name. Unlike AllNames, it includes traces that a later load
// dropped from the list.
func (c *Collection) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.namesLocked()
}

func (c *Collection) namesLocked() []string {
	out := make([]string, 0, len(c.traces))
	seen := make(map[string]struct{}, len(c.traces))

	for _, name := range c.all {
		if _, ok := c.traces[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, name)
	}

	rest := make([]string, 0, len(c.traces)-len(seen))
	for name := range c.traces {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}

	sort.Strings(rest)

	return append(out, rest...)
}

// Selected returns copies of the selected traces in selection order.
// Selected names without a stored trace are skipped.
func (c *Collection) Selected() []*Trace {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Trace, 0, len(c.selected))
	for _, name := range c.selected {
		t, ok := c.traces[name]
		if !ok {
			slog.Debug("selected trace is not loaded", slog.String("name", name))

			continue
		}

		out = append(out, t.Clone())
	}

	return out
}

// AllNames returns the ordered names of the most recent load.
func (c *Collection) AllNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.all)
}

// SetAllNames replaces the ordered list of all names.
func (c *Collection) SetAllNames(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.all = slices.Clone(names)
}

// SelectedNames returns the selected names in order.
func (c *Collection) SelectedNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.selected)
}

// SetSelected replaces the selection. Duplicate names are dropped.
func (c *Collection) SetSelected(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = c.selected[:0:0]
	for _, name := range names {
		if !slices.Contains(c.selected, name) {
			c.selected = append(c.selected, name)
		}
	}
}

// IsSelected reports whether the name is selected.
func (c *Collection) IsSelected(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Contains(c.selected, name)
}

// ToggleSelected adds the name to the selection, or removes it if it is
// already selected. It returns the new selection state of the name.
func (c *Collection) ToggleSelected(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := slices.Index(c.selected, name)
	if idx >= 0 {
		c.selected = slices.Delete(c.selected, idx, idx+1)

		return false
	}

	c.selected = append(c.selected, name)

	return true
}

// ClearFit clears the fit of a single trace.
func (c *Collection) ClearFit(name string) error {
	return c.Update(name, func(t *Trace) error {
		t.ClearFit()

		return nil
	})
}

// ClearAllFits clears the fit of every trace named by [Collection.AllNames].
func (c *Collection) ClearAllFits() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range c.all {
		if t, ok := c.traces[name]; ok {
			t.ClearFit()
		}
	}
}

type collectionSnapshot struct {
	Traces   map[string]*Trace
	All      []string
	Selected []string
}

// Hash returns a hash of the collection's content, including selections and
// fits. Equal content always produces an equal hash.
func (c *Collection) Hash() (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	h, err := hashstructure.Hash(collectionSnapshot{
		Traces:   c.traces,
		All:      c.all,
		Selected: c.selected,
	}, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("hash collection: %w", err)
	}

	return h, nil
}
