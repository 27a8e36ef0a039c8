// Package loader reads trace files from a path and reloads them when they
// change.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/macropower/tracefit/pkg/expr"
	"github.com/macropower/tracefit/pkg/log"
	"github.com/macropower/tracefit/pkg/trace"
)

// ErrNoFiles is returned when a path contains no matching files.
var ErrNoFiles = errors.New("no matching files")

// Loader reads trace files. It manages:
//   - File matching with CEL expressions.
//   - Filesystem notifications / watching.
//   - Cancellation of superseded loads.
type Loader struct {
	tracer  oteltrace.Tracer
	watcher *fsnotify.Watcher
	match   *expr.FileMatcher
	reload  *expr.EventMatcher

	// Track watched files. Stores absolute file paths.
	watchedFiles map[string]struct{}

	// Track watched directories, so they can be removed on re-configuration.
	// Stores absolute directory paths.
	watchedDirs map[string]struct{}

	cancelFunc context.CancelFunc

	// Absolute path of the file or directory to load.
	path string

	listeners   []chan<- Event
	listenersMu sync.RWMutex
	mu          sync.Mutex
	watch       bool
	isDir       bool
}

// New creates a new [Loader] for a file or directory.
func New(path string, opts ...Opt) (*Loader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	l := &Loader{
		watchedDirs:  make(map[string]struct{}),
		watchedFiles: make(map[string]struct{}),
		tracer:       otel.Tracer("loader"),
		watcher:      watcher,
	}

	opts = append(opts, WithPath(path))

	err = l.Configure(opts...)
	if err != nil {
		l.Close()

		return nil, err
	}

	return l, nil
}

// Configure applies options to an existing loader.
func (l *Loader) Configure(opts ...Opt) error {
	return l.ConfigureContext(context.Background(), opts...)
}

// ConfigureContext applies options to an existing loader. Any running load is
// canceled, and watchers are re-created for the new configuration.
func (l *Loader) ConfigureContext(ctx context.Context, opts ...Opt) error {
	ctx, span := l.tracer.Start(ctx, "configure")
	defer span.End()

	logger := log.WithContext(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.removeWatchers(ctx)

	// Cancel any currently running load.
	if l.cancelFunc != nil {
		// Note: The cancel event is broadcast by the canceled goroutine.
		l.cancelFunc()
	}

	for _, opt := range opts {
		err := opt(l)
		if err != nil {
			return fmt.Errorf("apply option: %w", err)
		}
	}

	if l.match == nil {
		m, err := expr.NewFileMatcher("")
		if err != nil {
			return err
		}

		l.match = m
	}

	if l.reload == nil {
		m, err := expr.NewEventMatcher("")
		if err != nil {
			return err
		}

		l.reload = m
	}

	if l.watch {
		err := l.watchSource(ctx)
		if err != nil {
			return err
		}
	}

	l.broadcast(NewEventConfigure(ctx))
	logger.DebugContext(ctx, "configured loader",
		slog.String("path", l.path),
		slog.String("match", l.match.String()),
		slog.Bool("watch", l.watch),
	)

	return nil
}

type Opt func(l *Loader) error

// WithPath sets the file or directory to load.
func WithPath(path string) Opt {
	return func(l *Loader) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve path %q: %w", path, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("stat path %q: %w", path, err)
		}

		l.path = abs
		l.isDir = info.IsDir()

		return nil
	}
}

// WithWatch sets whether files are watched for changes.
func WithWatch(watch bool) Opt {
	return func(l *Loader) error {
		l.watch = watch

		return nil
	}
}

// WithMatch sets the CEL expression that selects which files are loaded.
// See [expr.FileMatcher].
func WithMatch(expression string) Opt {
	return func(l *Loader) error {
		m, err := expr.NewFileMatcher(expression)
		if err != nil {
			return err
		}

		l.match = m

		return nil
	}
}

// WithReload sets the CEL expression that selects which file events trigger a
// reload. See [expr.EventMatcher].
func WithReload(expression string) Opt {
	return func(l *Loader) error {
		m, err := expr.NewEventMatcher(expression)
		if err != nil {
			return err
		}

		l.reload = m

		return nil
	}
}

// Path returns the absolute path being loaded.
func (l *Loader) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.path
}

// Run loads every matching file.
func (l *Loader) Run() Output {
	return l.RunContext(context.Background())
}

// RunContext loads every matching file with the provided context. If the path
// is a directory, it is walked recursively, skipping hidden directories.
//
// Files that fail to parse are reported in [Output.Failed] and do not stop
// the load. Starting another load cancels this one.
func (l *Loader) RunContext(ctx context.Context) Output {
	return l.run(ctx, nil)
}

func (l *Loader) run(ctx context.Context, changed []string) Output {
	l.mu.Lock()

	var (
		path  = l.path
		isDir = l.isDir
		match = l.match
	)

	ctx, span := l.tracer.Start(ctx, "load", oteltrace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	// Cancel any currently running load.
	if l.cancelFunc != nil {
		// Note: The cancel event is broadcast by the canceled goroutine.
		l.cancelFunc()
	}

	ctx, l.cancelFunc = context.WithCancel(ctx)

	l.mu.Unlock()

	l.broadcast(NewEventStart(ctx))

	out := NewOutput(path)
	out.Changed = changed

	files, err := findFiles(path, isDir, match)
	if err != nil {
		out.Error = err
		l.broadcast(NewEventEnd(ctx, out))

		return out
	}

	logger := log.WithContext(ctx)

	for _, file := range files {
		if ctx.Err() != nil {
			logger.DebugContext(ctx, "load canceled", slog.String("path", path))
			l.broadcast(NewEventCancel(ctx))

			out.Error = ctx.Err()

			return out
		}

		name := traceName(path, isDir, file)

		t, err := trace.ReadFile(file)
		if err != nil {
			out.Failed = append(out.Failed, FileError{Name: name, Err: err})

			continue
		}

		t.Name = name
		out.Names = append(out.Names, name)
		out.Traces = append(out.Traces, t)
	}

	span.SetAttributes(
		attribute.Int("loaded", len(out.Traces)),
		attribute.Int("failed", len(out.Failed)),
	)

	logger.DebugContext(ctx, "loaded traces",
		slog.String("path", path),
		slog.Int("loaded", len(out.Traces)),
		slog.Int("failed", len(out.Failed)),
	)

	l.broadcast(NewEventEnd(ctx, out))

	return out
}

// findFiles returns the absolute paths of matching files, in lexical order.
func findFiles(path string, isDir bool, match *expr.FileMatcher) ([]string, error) {
	if !isDir {
		ok, err := match.Match(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s does not match %s", ErrNoFiles, path, match)
		}

		return []string{path}, nil
	}

	var files []string

	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}

			return nil
		}

		ok, err := match.Match(p)
		if err != nil {
			return err
		}
		if ok {
			files = append(files, p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", path, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, path)
	}

	return files, nil
}

// traceName names a trace after its file, relative to the loaded directory.
func traceName(root string, isDir bool, file string) string {
	if !isDir {
		return filepath.Base(file)
	}

	rel, err := filepath.Rel(root, file)
	if err != nil {
		return filepath.Base(file)
	}

	return filepath.ToSlash(rel)
}

func (l *Loader) watchSource(ctx context.Context) error {
	files, err := findFiles(l.path, l.isDir, l.match)
	if err != nil && !errors.Is(err, ErrNoFiles) {
		return err
	}

	dirs := make(map[string]struct{})
	if l.isDir {
		// Watch the whole tree so new files are noticed.
		err := filepath.WalkDir(l.path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if p != l.path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}

			dirs[p] = struct{}{}

			return nil
		})
		if err != nil {
			return fmt.Errorf("walk %q: %w", l.path, err)
		}
	}

	l.watchedFiles = make(map[string]struct{})
	for _, file := range files {
		dirs[filepath.Dir(file)] = struct{}{}
		l.watchedFiles[file] = struct{}{}
	}

	for dir := range dirs {
		err := l.watcher.Add(dir)
		if err != nil {
			return fmt.Errorf("add path to watcher: %w", err)
		}

		l.watchedDirs[dir] = struct{}{}
	}

	log.WithContext(ctx).DebugContext(ctx, "added file watchers",
		slog.String("path", l.path),
		slog.Int("count", len(l.watchedDirs)),
	)

	return nil
}

func (l *Loader) removeWatchers(ctx context.Context) {
	if l.watcher == nil || len(l.watchedDirs) == 0 {
		return
	}

	logger := log.WithContext(ctx)

	removedCount := 0
	for dir := range l.watchedDirs {
		err := l.watcher.Remove(dir)
		if errors.Is(err, fsnotify.ErrNonExistentWatch) {
			continue
		}
		if err != nil {
			logger.ErrorContext(ctx, "remove path from watcher", slog.Any("err", err))
		}

		removedCount++
	}

	logger.DebugContext(ctx, "removed file watchers",
		slog.String("path", l.path),
		slog.Int("count", removedCount),
	)

	clear(l.watchedDirs)
	clear(l.watchedFiles)
}

// isRelevant reports whether a file event concerns a watched file, or a new
// matching file in a watched directory.
func (l *Loader) isRelevant(file string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.watchedFiles[file]; ok {
		return true
	}

	if !l.isDir {
		return false
	}

	if _, ok := l.watchedDirs[filepath.Dir(file)]; !ok {
		return false
	}

	ok, err := l.match.Match(file)
	if err != nil {
		slog.Debug("match file event", slog.String("file", file), slog.Any("err", err))

		return false
	}

	if ok {
		l.watchedFiles[file] = struct{}{}
	}

	return ok
}

// Subscribe allows other components to listen for load events.
func (l *Loader) Subscribe(ch chan<- Event) {
	l.listenersMu.Lock()
	defer l.listenersMu.Unlock()

	l.listeners = append(l.listeners, ch)
}

func (l *Loader) broadcast(evt Event) {
	ctx := evt.GetContext()

	log.WithContext(ctx).DebugContext(ctx, "broadcasting event",
		slog.String("event", fmt.Sprintf("%T", evt)),
	)

	l.listenersMu.RLock()
	defer l.listenersMu.RUnlock()

	for _, ch := range l.listeners {
		ch <- evt
	}
}

// RunOnEvent listens for file system events and reloads in response.
// It returns when the loader is closed.
// The output should be collected via [Loader.Subscribe].
func (l *Loader) RunOnEvent() {
	for {
		select {
		case evt, ok := <-l.watcher.Events:
			if !ok {
				return
			}

			if !l.isRelevant(evt.Name) {
				continue
			}

			ctx := context.Background()
			logger := log.WithContext(ctx)

			l.mu.Lock()
			reload := l.reload
			path, isDir := l.path, l.isDir
			l.mu.Unlock()

			matched, err := reload.Match(evt.Name, evt.Op)
			if err != nil {
				logger.ErrorContext(ctx, "match file event",
					slog.String("event", evt.String()),
					slog.Any("error", err),
				)
				l.broadcast(NewEventEnd(ctx,
					NewOutput(path, WithError(fmt.Errorf("match file event: %w", err))),
				))

				continue
			}
			if !matched {
				continue
			}

			changed := []string{traceName(path, isDir, evt.Name)}

			// Load in a goroutine so a newer event can cancel it.
			go l.run(ctx, changed)

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}

			l.broadcast(NewEventEnd(
				context.Background(),
				NewOutput(l.Path(), WithError(err)),
			))
		}
	}
}

// Close stops watching and cancels any running load.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.cancelFunc != nil {
		l.cancelFunc()
	}
	l.mu.Unlock()

	err := l.watcher.Close()
	if err != nil {
		slog.Error("close watcher", slog.Any("err", err))
	}
}

func (l *Loader) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return fmt.Sprintf("%s (%s)", l.path, l.match)
}
