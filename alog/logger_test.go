package alog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/go-arrower/tagfactory/alog"
)

var ctx = context.Background()

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("default level is info", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		logger := alog.New(alog.WithHandler(slog.NewTextHandler(buf, nil)))

		logger.DebugContext(ctx, "debug msg")
		logger.Log(ctx, alog.LevelDebug, "factory msg")
		assert.Empty(t, buf.String())

		logger.InfoContext(ctx, "info msg")
		assert.Contains(t, buf.String(), "info msg")
	})

	t.Run("log to multiple handlers", func(t *testing.T) {
		t.Parallel()

		buf0 := &bytes.Buffer{}
		buf1 := &bytes.Buffer{}
		logger := alog.New(
			alog.WithHandler(slog.NewTextHandler(buf0, nil)),
			alog.WithHandler(slog.NewJSONHandler(buf1, nil)),
		)

		logger.InfoContext(ctx, "hello")

		assert.Contains(t, buf0.String(), "msg=hello")
		assert.Contains(t, buf1.String(), `"msg":"hello"`)
	})

	t.Run("with level", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		logger := alog.New(
			alog.WithLevel(alog.LevelDebug),
			alog.WithHandler(slog.NewTextHandler(buf, &slog.HandlerOptions{
				Level:       alog.LevelDebug,
				ReplaceAttr: alog.MapLogLevelsToName,
			})),
		)

		logger.Log(ctx, alog.LevelDebug, "factory msg")
		assert.Contains(t, buf.String(), "level=FACTORY:DEBUG")
	})
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	t.Run("set level at run time", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		logger := alog.New(alog.WithHandler(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: alog.LevelDebug})))
		derived := logger.With("some", "attr")

		alog.Unwrap(logger).SetLevel(alog.LevelInfo)
		assert.Equal(t, alog.LevelInfo, alog.Unwrap(logger).Level())

		derived.Log(ctx, alog.LevelInfo, "derived msg")
		assert.Contains(t, buf.String(), "derived msg", "derived loggers share the level")
	})

	t.Run("foreign logger", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		assert.Nil(t, alog.Unwrap(logger))
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected slog.Level
	}{
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"factory:info", alog.LevelInfo},
		{"FACTORY:DEBUG", alog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			level, err := alog.ParseLevel(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		_, err := alog.ParseLevel("loud")
		assert.Error(t, err)
	})
}

func TestLogger_Tracing(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	logger := alog.Test(t)

	newCtx, span := tracer.Start(ctx, "build")
	logger.InfoContext(newCtx, "inside span", "template", "tag")
	span.End()

	logger.Contains("traceID=" + span.SpanContext().TraceID().String())
	logger.Contains("spanID=" + span.SpanContext().SpanID().String())

	require.Len(t, recorder.Ended(), 1)
	events := recorder.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "log", events[0].Name)
}

func TestNewNoop(t *testing.T) {
	t.Parallel()

	logger := alog.NewNoop()

	assert.False(t, logger.Enabled(ctx, alog.LevelDebug))
	assert.False(t, logger.Enabled(ctx, slog.LevelError))
	assert.NotNil(t, alog.Unwrap(logger))
}
