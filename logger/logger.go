package logger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/pure-golang/moviehub-mailer/logger/devslog"
	"github.com/pure-golang/moviehub-mailer/logger/noop"
	"github.com/pure-golang/moviehub-mailer/logger/stdjson"
)

type (
	Level    string
	Provider string
)

const (
	INFO  Level = "info"
	ERROR Level = "error"
	WARN  Level = "warn"
	DEBUG Level = "debug"
)

const (
	ProviderDevSlog Provider = "dev"      // colored, for local runs
	ProviderStdJson Provider = "std_json" // JSON lines on stdout
	ProviderNoop    Provider = "noop"     // drops everything
)

var levels = map[Level]slog.Level{
	DEBUG: slog.LevelDebug,
	INFO:  slog.LevelInfo,
	WARN:  slog.LevelWarn,
	ERROR: slog.LevelError,
}

type ctxKey struct{}

type Config struct {
	Provider Provider `envconfig:"LOG_PROVIDER" default:"std_json"`
	Level    Level    `envconfig:"LOG_LEVEL" default:"info"`
	Service  string   `envconfig:"SERVICE_NAME" default:"moviehub-mailer"`
}

// NewDefault builds the logger described by c. Unknown providers fall back
// to std_json; every record carries the service name when it is set.
func NewDefault(c Config) *slog.Logger {
	level := convertLevel(c.Level)

	var l *slog.Logger
	switch c.Provider {
	case ProviderDevSlog:
		l = devslog.NewDefault(level)
	case ProviderNoop:
		l = noop.NewNoop()
	default:
		l = stdjson.NewDefault(level)
	}

	if c.Service != "" {
		l = l.With("service", c.Service)
	}
	return l
}

// InitDefault installs NewDefault(c) as slog's default logger and routes
// OpenTelemetry's internal errors to it.
func InitDefault(c Config) {
	slog.SetDefault(NewDefault(c))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		slog.Default().Error("opentelemetry", "error", err.Error())
	}))
}

// FromContext returns the request logger, or slog's default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContextWithErr adds err, and its stack when it was created by
// pkg/errors, to the request logger. A nil err adds nothing.
func FromContextWithErr(ctx context.Context, err error) *slog.Logger {
	l := FromContext(ctx)
	if err == nil {
		return l
	}

	var st interface{ StackTrace() errors.StackTrace }
	if errors.As(err, &st) {
		l = l.With("stack", st.StackTrace())
	}
	return l.With("error", err.Error())
}

// convertLevel is case-insensitive; unknown levels mean info.
func convertLevel(level Level) slog.Level {
	if l, ok := levels[Level(strings.ToLower(string(level)))]; ok {
		return l
	}
	return slog.LevelInfo
}
