package devslog

import (
	"io"
	"log/slog"
	"os"

	"github.com/golang-cz/devslog"
)

// NewDefault writes colored, human-readable records to stdout.
func NewDefault(level slog.Level) *slog.Logger {
	return New(os.Stdout, level)
}

func New(w io.Writer, level slog.Level) *slog.Logger {
	opts := &devslog.Options{
		HandlerOptions: &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		},
		NewLineAfterLog:    true,
		MaxErrorStackTrace: 20,
		MaxSlicePrintSize:  20,
		SortKeys:           true,
		TimeFormat:         "[15:04:05]",
		DebugColor:         devslog.Magenta,
		StringerFormatter:  true,
	}

	return slog.New(devslog.NewHandler(w, opts))
}
