package alog

import (
	"io"
	"log/slog"
	"math"
)

// levelOff is above every level in use, so no record is ever enabled.
const levelOff = slog.Level(math.MaxInt)

// NewNoop returns a Logger that discards every record.
// It is the default of everything in this module that logs.
func NewNoop() *slog.Logger {
	return New(
		WithLevel(levelOff),
		WithHandler(slog.NewTextHandler(io.Discard, nil)),
	)
}
