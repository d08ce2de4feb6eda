// Package jaeger exports traces over OTLP/HTTP, as accepted by Jaeger and
// any OpenTelemetry collector.
package jaeger

import (
	"context"
	stdErr "errors"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/pure-golang/moviehub-mailer/tracing"
)

const closeTimeout = 5 * time.Second

var _ tracing.Provider = (*Provider)(nil)

// Config enables tracing when EndPoint is set.
type Config struct {
	EndPoint    string `envconfig:"TRACING_ENDPOINT"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"moviehub-mailer"`
	AppVersion  string `envconfig:"APP_VERSION" default:"dev"`
}

func (c Config) Enabled() bool {
	return c.EndPoint != ""
}

// Provider is a batching tracesdk.TracerProvider behind an OTLP exporter.
type Provider struct {
	*tracesdk.TracerProvider
}

// Close flushes pending spans and shuts the exporter down.
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	err := stdErr.Join(
		errors.Wrap(p.ForceFlush(ctx), "force flush"),
		errors.Wrap(p.Shutdown(ctx), "shutdown"),
	)

	return errors.Wrap(err, "failed to close tracing provider")
}

func NewProviderBuilder(conf Config) tracing.ProviderBuilder {
	return func() (tracing.Provider, error) {
		if conf.EndPoint == "" {
			return nil, errors.New("empty tracing endpoint")
		}
		if conf.ServiceName == "" {
			return nil, errors.New("service name is empty")
		}

		exp, err := otlptrace.New(
			context.Background(),
			otlptracehttp.NewClient(
				otlptracehttp.WithEndpointURL(conf.EndPoint),
			),
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create otlp exporter")
		}

		tp := tracesdk.NewTracerProvider(
			tracesdk.WithBatcher(exp),
			tracesdk.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceNameKey.String(conf.ServiceName),
				semconv.ServiceVersionKey.String(conf.AppVersion),
			)),
			tracesdk.WithSampler(tracesdk.AlwaysSample()),
		)

		return &Provider{TracerProvider: tp}, nil
	}
}
