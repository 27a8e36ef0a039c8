package loader_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/tracefit/pkg/loader"
	"github.com/macropower/tracefit/pkg/trace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func testDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), ",x,y\n0,0,1\n1,1,2\n")
	writeFile(t, filepath.Join(dir, "b.txt"), "x,y\n0,5\n")
	writeFile(t, filepath.Join(dir, "bad.csv"), "x,y\n0,oops\n")
	writeFile(t, filepath.Join(dir, "notes.md"), "# notes\n")
	writeFile(t, filepath.Join(dir, "sub", "c.csv"), "x,y\n0,3\n")
	writeFile(t, filepath.Join(dir, ".hidden", "d.csv"), "x,y\n0,4\n")

	return dir
}

func TestLoader_Run(t *testing.T) {
	t.Parallel()

	dir := testDir(t)

	tcs := map[string]struct {
		err        error
		path       string
		match      string
		wantNames  []string
		wantFailed []string
	}{
		"directory": {
			path:       dir,
			wantNames:  []string{"a.csv", "b.txt", "sub/c.csv"},
			wantFailed: []string{"bad.csv"},
		},
		"directory with match": {
			path:      dir,
			match:     `pathBase(file) in ["a.csv", "c.csv"]`,
			wantNames: []string{"a.csv", "sub/c.csv"},
		},
		"single file": {
			path:      filepath.Join(dir, "sub", "c.csv"),
			wantNames: []string{"c.csv"},
		},
		"file does not match": {
			path: filepath.Join(dir, "notes.md"),
			err:  loader.ErrNoFiles,
		},
		"no matching files": {
			path:  dir,
			match: `pathExt(file) == ".json"`,
			err:   loader.ErrNoFiles,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			opts := []loader.Opt{}
			if tc.match != "" {
				opts = append(opts, loader.WithMatch(tc.match))
			}

			l, err := loader.New(tc.path, opts...)
			require.NoError(t, err)

			defer l.Close()

			out := l.Run()
			if tc.err != nil {
				require.ErrorIs(t, out.Error, tc.err)

				return
			}

			require.NoError(t, out.Error)
			assert.Equal(t, tc.wantNames, out.Names)
			require.Len(t, out.Traces, len(out.Names))

			for i, tr := range out.Traces {
				assert.Equal(t, out.Names[i], tr.Name)
			}

			failed := []string{}
			for _, f := range out.Failed {
				failed = append(failed, f.Name)
			}

			if tc.wantFailed == nil {
				tc.wantFailed = []string{}
			}

			assert.Equal(t, tc.wantFailed, failed)

			if len(tc.wantFailed) > 0 {
				var perr *trace.ParseError
				require.ErrorAs(t, out.Err(), &perr)
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	_, err := loader.New(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = loader.New(t.TempDir(), loader.WithMatch(`pathExt(file) ==`))
	require.Error(t, err)

	_, err = loader.New(t.TempDir(), loader.WithReload(`op`))
	require.Error(t, err)
}

func TestLoader_Events(t *testing.T) {
	t.Parallel()

	dir := testDir(t)

	l, err := loader.New(dir)
	require.NoError(t, err)

	defer l.Close()

	events := make(chan loader.Event, 10)
	l.Subscribe(events)

	out := l.RunContext(t.Context())
	require.NoError(t, out.Error)

	got := collectEventsWithTimeout(events, 2, time.Second)
	require.Len(t, got, 2)
	assert.IsType(t, loader.EventStart{}, got[0])
	require.IsType(t, loader.EventEnd{}, got[1])

	end, ok := got[1].(loader.EventEnd)
	require.True(t, ok)
	assert.Equal(t, out.Names, end.Names)
	assert.NotNil(t, end.GetContext())
}

func TestLoader_Configure(t *testing.T) {
	t.Parallel()

	dir := testDir(t)

	l, err := loader.New(dir)
	require.NoError(t, err)

	defer l.Close()

	events := make(chan loader.Event, 10)
	l.Subscribe(events)

	require.NoError(t, l.Configure(loader.WithPath(filepath.Join(dir, "sub"))))

	got := collectEventsWithTimeout(events, 1, time.Second)
	require.Len(t, got, 1)
	assert.IsType(t, loader.EventConfigure{}, got[0])

	abs, err := filepath.Abs(filepath.Join(dir, "sub"))
	require.NoError(t, err)
	assert.Equal(t, abs, l.Path())

	out := l.Run()
	require.NoError(t, out.Error)
	assert.Equal(t, []string{"c.csv"}, out.Names)
}

func TestLoader_FileWatcher(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		fileOperation func(*testing.T, string)
		wantChanged   string
		wantY         float64
	}{
		"file modification": {
			fileOperation: func(t *testing.T, dir string) {
				t.Helper()

				writeFile(t, filepath.Join(dir, "a.csv"), "x,y\n0,42\n")
			},
			wantChanged: "a.csv",
			wantY:       42,
		},
		"new file": {
			fileOperation: func(t *testing.T, dir string) {
				t.Helper()

				writeFile(t, filepath.Join(dir, "new.csv"), "x,y\n0,7\n")
			},
			wantChanged: "new.csv",
			wantY:       7,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "a.csv"), "x,y\n0,1\n")

			l, err := loader.New(dir, loader.WithWatch(true))
			require.NoError(t, err)

			defer l.Close()

			events := make(chan loader.Event, 100)
			l.Subscribe(events)

			go l.RunOnEvent()

			// Give it a moment to start watching.
			time.Sleep(50 * time.Millisecond)

			tc.fileOperation(t, dir)

			// Writes may be observed part way, so wait for the complete file.
			waitForEnd(t, events, 5*time.Second, func(end loader.EventEnd) bool {
				c := trace.NewCollection()
				end.Apply(c, false)

				got, err := c.Get(tc.wantChanged)
				if err != nil {
					return false
				}

				return slices.Contains(end.Changed, tc.wantChanged) && got.Y[len(got.Y)-1] == tc.wantY
			})
		})
	}
}

func TestOutput_Apply(t *testing.T) {
	t.Parallel()

	old, err := trace.New("a.csv", []float64{0, 1}, []float64{1, 2})
	require.NoError(t, err)
	require.NoError(t, old.SetFit(&trace.FitInfo{Model: "line"}, []float64{1, 2}))

	c := trace.NewCollection()
	c.SetTraces([]string{"a.csv"}, []*trace.Trace{old})

	fresh, err := trace.New("a.csv", []float64{0, 1}, []float64{5, 6})
	require.NoError(t, err)
	other, err := trace.New("b.csv", []float64{0}, []float64{1})
	require.NoError(t, err)

	out := loader.NewOutput("/data")
	out.Names = []string{"a.csv"}
	out.Traces = []*trace.Trace{fresh}

	// Unchanged names keep their stored trace.
	out.Apply(c, false)

	got, err := c.Get("a.csv")
	require.NoError(t, err)
	assert.True(t, got.HasFit())

	// Changed names are replaced.
	out.Changed = []string{"a.csv"}
	out.Apply(c, false)

	got, err = c.Get("a.csv")
	require.NoError(t, err)
	assert.False(t, got.HasFit())
	assert.Equal(t, []float64{5, 6}, got.Y)

	// Merging keeps the existing names.
	more := loader.NewOutput("/other")
	more.Names = []string{"b.csv"}
	more.Traces = []*trace.Trace{other}
	more.Apply(c, true)

	assert.Equal(t, []string{"a.csv", "b.csv"}, c.AllNames())
}

func waitForEnd(t *testing.T, events <-chan loader.Event, timeout time.Duration, done func(loader.EventEnd) bool) {
	t.Helper()

	deadline := time.After(timeout)

	for {
		select {
		case evt := <-events:
			end, ok := evt.(loader.EventEnd)
			if ok && done(end) {
				return
			}

		case <-deadline:
			require.FailNow(t, "timed out waiting for reload")
		}
	}
}

func collectEventsWithTimeout(events <-chan loader.Event, n int, timeout time.Duration) []loader.Event {
	var got []loader.Event

	deadline := time.After(timeout)

	for len(got) < n {
		select {
		case evt := <-events:
			got = append(got, evt)
		case <-deadline:
			return got
		}
	}

	return got
}
