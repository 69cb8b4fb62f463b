package alog

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LoggerOpt allows to initialise a logger with custom options.
type LoggerOpt func(h *tracedHandler)

// WithHandler adds a slog.Handler to be logged to.
// You can set as many as you want.
func WithHandler(h slog.Handler) LoggerOpt {
	return func(t *tracedHandler) {
		t.handlers = append(t.handlers, h)
	}
}

// WithLevel initialises the logger with a starting level.
// To change the level at runtime use Unwrap(logger).SetLevel(LevelInfo).
func WithLevel(level slog.Level) LoggerOpt {
	return func(t *tracedHandler) {
		t.level.Set(level)
	}
}

// New returns a logger writing to all handlers given via WithHandler.
// If no handler is given, it logs JSON to Stderr.
func New(opts ...LoggerOpt) *slog.Logger {
	return slog.New(newTracedHandler(opts...))
}

// NewDevelopment returns a logger that prints everything the factories do
// in a human-readable form to Stderr.
func NewDevelopment() *slog.Logger {
	return New(
		WithLevel(LevelDebug),
		WithHandler(slog.NewTextHandler(os.Stderr, getDebugHandlerOptions())),
	)
}

func newTracedHandler(opts ...LoggerOpt) *tracedHandler {
	handler := &tracedHandler{
		level:    &slog.LevelVar{},
		handlers: []slog.Handler{},
	}

	for _, opt := range opts {
		opt(handler)
	}

	if len(handler.handlers) == 0 {
		handler.handlers = []slog.Handler{slog.NewJSONHandler(os.Stderr, getDefaultHandlerOptions())}
	}

	return handler
}

// tracedHandler passes every record on to all its handlers and
// attaches the record to the span active in the context.
type tracedHandler struct {
	// level is shared by all handlers, their own level is ignored.
	level *slog.LevelVar

	handlers []slog.Handler
}

var _ slog.Handler = (*tracedHandler)(nil)

func (h *tracedHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *tracedHandler) Handle(ctx context.Context, record slog.Record) error {
	span := trace.SpanFromContext(ctx)

	record = addTraceAndSpanIDs(span, record)
	addRecordAsSpanEvent(span, record)

	var retErr error

	for _, handler := range h.handlers {
		retErr = errors.Join(retErr, handler.Handle(ctx, record))
	}

	return retErr
}

func (h *tracedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))

	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}

	return &tracedHandler{level: h.level, handlers: handlers}
}

func (h *tracedHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))

	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}

	return &tracedHandler{level: h.level, handlers: handlers}
}

// SetLevel changes the level of the logger and all loggers derived from it via With.
func (h *tracedHandler) SetLevel(level slog.Level) {
	h.level.Set(level)
}

func (h *tracedHandler) Level() slog.Level {
	return h.level.Level()
}

// LevelController offers control over the level of a logger at run time.
// Unwrap a logger to get access to it.
type LevelController interface {
	SetLevel(level slog.Level)
	Level() slog.Level
}

// Unwrap returns the LevelController of a logger created by this package.
// For any other logger it returns nil.
func Unwrap(logger Logger) LevelController { //nolint:ireturn // TestLogger and tracedHandler both control levels
	if l, ok := logger.(*TestLogger); ok {
		return l
	}

	sl, ok := logger.(*slog.Logger)
	if !ok {
		return nil
	}

	if h, ok := sl.Handler().(*tracedHandler); ok {
		return h
	}

	return nil
}

func addTraceAndSpanIDs(span trace.Span, record slog.Record) slog.Record {
	sCtx := span.SpanContext()

	if sCtx.HasTraceID() {
		record.AddAttrs(slog.String("traceID", sCtx.TraceID().String()))
	}

	if sCtx.HasSpanID() {
		record.AddAttrs(slog.String("spanID", sCtx.SpanID().String()))
	}

	return record
}

func addRecordAsSpanEvent(span trace.Span, record slog.Record) {
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("log.severity", record.Level.String()),
		attribute.String("log.message", record.Message),
	}

	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, attribute.String(a.Key, a.Value.String()))
		return true
	})

	span.AddEvent("log", trace.WithAttributes(attrs...))

	if record.Level >= slog.LevelError {
		span.SetStatus(codes.Error, record.Message)
	}
}

func getDefaultHandlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource:   true,
		Level:       LevelDebug, // the tracedHandler's level is used for all handlers.
		ReplaceAttr: MapLogLevelsToName,
	}
}

// getDebugHandlerOptions keeps the output readable, by removing not essential keys.
func getDebugHandlerOptions() *slog.HandlerOptions {
	opt := getDefaultHandlerOptions()
	opt.AddSource = false

	return opt
}
