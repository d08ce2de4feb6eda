package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type testProvider struct {
	*tracesdk.TracerProvider
}

func (p *testProvider) Close() error {
	return p.Shutdown(context.Background())
}

func restoreGlobals(t *testing.T) {
	t.Helper()

	provider := otel.GetTracerProvider()
	propagator := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(provider)
		otel.SetTextMapPropagator(propagator)
	})
}

func TestInit_InstallsProvider(t *testing.T) {
	restoreGlobals(t)

	recorder := tracetest.NewSpanRecorder()
	tp := &testProvider{TracerProvider: tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(recorder))}

	provider, err := Init(func() (Provider, error) { return tp, nil })
	require.NoError(t, err)
	assert.Same(t, tp, provider)

	_, span := otel.Tracer("tracing_test").Start(context.Background(), "smtp.send")
	span.End()

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, "smtp.send", recorder.Ended()[0].Name())
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")

	assert.NoError(t, provider.Close())
}

func TestInit_BuilderError(t *testing.T) {
	restoreGlobals(t)

	provider, err := Init(func() (Provider, error) { return nil, assert.AnError })

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "failed to load tracing provider")
	assert.IsType(t, NoopProvider{}, provider)
}

func TestNoopProvider(t *testing.T) {
	var provider Provider = NoopProvider{}

	_, span := provider.Tracer("noop").Start(context.Background(), "span")
	span.End()

	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, provider.Close())
}
