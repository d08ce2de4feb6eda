package metrics

import (
	"context"
	stdErr "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/pure-golang/moviehub-mailer/httpserver/std"
)

const Path = "/metrics"

type Config struct {
	Enabled     bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Host        string `envconfig:"METRICS_HOST" default:"0.0.0.0"`
	Port        int    `envconfig:"METRICS_PORT" default:"9090"`
	ReadTimeout int    `envconfig:"METRICS_READ_TIMEOUT" default:"30"` // seconds
}

// Metrics exports the global OpenTelemetry meters on a separate
// Prometheus endpoint.
type Metrics struct {
	registry *prometheus.Registry
	server   *std.Server
	provider *sdkmetric.MeterProvider
}

// InitDefault starts metrics when enabled. The returned closer is never nil.
func InitDefault(config Config) (io.Closer, error) {
	if !config.Enabled {
		return disabled{}, nil
	}

	m := New(config)
	if err := m.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start metrics server")
	}

	return m, nil
}

type disabled struct{}

func (disabled) Close() error { return nil }

func New(config Config) *Metrics {
	registry := prometheus.NewRegistry()

	return &Metrics{
		registry: registry,
		server: std.New(std.Config{
			Host:        config.Host,
			Port:        config.Port,
			ReadTimeout: time.Duration(config.ReadTimeout) * time.Second,
		}, Handler(registry)),
	}
}

// Handler serves the registry on Path.
func Handler(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}

// Start installs the meter provider and serves Path in the background.
func (m *Metrics) Start() error {
	provider, err := InitPrometheus(m.registry)
	if err != nil {
		return errors.Wrap(err, "failed to init prometheus")
	}
	m.provider = provider

	go func() {
		if err := m.server.Start(); err != nil {
			slog.Default().Warn("metrics server failed", "error", err.Error())
		}
	}()

	return nil
}

func (m *Metrics) Close() error {
	err := m.server.Close()
	if m.provider != nil {
		err = stdErr.Join(err, m.provider.Shutdown(context.Background()))
	}

	return errors.Wrap(err, "failed to close metrics")
}
