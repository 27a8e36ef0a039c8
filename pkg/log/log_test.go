package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/tracefit/pkg/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		want  slog.Level
		err   error
	}{
		"error":   {input: "error", want: slog.LevelError},
		"warn":    {input: "warn", want: slog.LevelWarn},
		"warning": {input: "WARNING", want: slog.LevelWarn},
		"info":    {input: "Info", want: slog.LevelInfo},
		"debug":   {input: "debug", want: slog.LevelDebug},
		"unknown": {input: "trace", err: log.ErrUnknownLogLevel},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := log.ParseLevel(tc.input)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				require.ErrorContains(t, err, tc.input)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, f := range log.AllFormats {
		got, err := log.ParseFormat(f)
		require.NoError(t, err)
		assert.Equal(t, log.Format(f), got)
	}

	_, err := log.ParseFormat("xml")
	require.ErrorIs(t, err, log.ErrUnknownLogFormat)
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		check  func(t *testing.T, out string)
		level  string
		format string
		err    error
	}{
		"json": {
			level:  "info",
			format: "json",
			check: func(t *testing.T, out string) {
				t.Helper()

				var entry map[string]any
				require.NoError(t, json.Unmarshal([]byte(out), &entry))
				assert.Equal(t, "loaded traces", entry["msg"])
				assert.InDelta(t, 3, entry["count"], 0)
				assert.Contains(t, entry, "source")
			},
		},
		"logfmt": {
			level:  "warn",
			format: "LOGFMT",
			check: func(t *testing.T, out string) {
				t.Helper()

				assert.Empty(t, out)
			},
		},
		"text": {
			level:  "debug",
			format: "text",
			check: func(t *testing.T, out string) {
				t.Helper()

				assert.Contains(t, out, "loaded traces")
				assert.Contains(t, out, "hidden")
			},
		},
		"invalid level": {
			level:  "loud",
			format: "json",
			err:    log.ErrUnknownLogLevel,
		},
		"invalid format": {
			level:  "info",
			format: "xml",
			err:    log.ErrUnknownLogFormat,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			h, err := log.NewHandler(&buf, tc.level, tc.format)
			if tc.err != nil {
				require.ErrorIs(t, err, log.ErrInvalidArgument)
				require.ErrorIs(t, err, tc.err)

				return
			}

			require.NoError(t, err)

			logger := slog.New(h)
			logger.Debug("hidden")
			logger.Info("loaded traces", slog.Int("count", 3))

			tc.check(t, buf.String())
		})
	}
}

func TestNewHandler_Span(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	h, err := log.NewHandler(&buf, "info", "json")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3, 4},
		SpanID:  trace.SpanID{5, 6, 7, 8},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	slog.New(h).With(slog.String("tool", "fit_trace")).InfoContext(ctx, "called tool")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, sc.TraceID().String(), entry["trace_id"])
	assert.Equal(t, sc.SpanID().String(), entry["span_id"])
	assert.Equal(t, "fit_trace", entry["tool"])

	buf.Reset()
	slog.New(h).Info("no span")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := log.NewContext(context.Background(), logger)

	assert.Same(t, logger, log.WithContext(ctx))
	assert.NotNil(t, log.WithContext(context.Background()))
}
