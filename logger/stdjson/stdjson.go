package stdjson

import (
	"io"
	"log/slog"
	"os"
)

// NewDefault writes JSON records to stdout.
func NewDefault(level slog.Level) *slog.Logger {
	return New(os.Stdout, level)
}

// New writes JSON records to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
