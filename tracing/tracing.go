package tracing

import (
	"io"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Provider interface {
	trace.TracerProvider
	io.Closer
}

// ProviderBuilder hides the exporter configuration behind a constructor.
type ProviderBuilder func() (Provider, error)

// Init installs the built provider and W3C trace-context propagation as
// globals. When the builder fails, a NoopProvider is returned along with
// the error so callers may keep running without traces.
func Init(build ProviderBuilder) (Provider, error) {
	provider, err := build()
	if err != nil {
		return NoopProvider{}, errors.Wrap(err, "failed to load tracing provider")
	}

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider, nil
}

// NoopProvider records nothing.
type NoopProvider struct{ noop.TracerProvider }

func (NoopProvider) Close() error { return nil }
