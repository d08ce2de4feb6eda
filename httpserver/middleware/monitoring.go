package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/moviehub-mailer/logger"
)

var (
	meter = otel.GetMeterProvider().Meter("github.com/pure-golang/moviehub-mailer/httpserver/middleware")
	// nolint:errcheck // Sync OpenTelemetry instruments never return errors
	requestsCount, _   = meter.Int64Counter("http.request_count")
	requestTimeHist, _ = meter.Int64Histogram("http.request_time", metric.WithUnit("ms"))
	tracer             = otel.Tracer("github.com/pure-golang/moviehub-mailer/httpserver/middleware")
)

// Monitoring traces incoming requests, records request metrics and puts a
// request-scoped logger (with trace_id) into the request context.
func Monitoring(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqTime := time.Now()
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		log := logger.FromContext(ctx).With("method", r.Method, "path", r.URL.Path)
		if sc := span.SpanContext(); sc.HasTraceID() {
			traceID := sc.TraceID().String()
			log = log.With("trace_id", traceID)
			w.Header().Set("X-Trace-Id", traceID)
		}

		reqBody := &bodyCapture{ReadCloser: r.Body}
		r.Body = reqBody

		srw := newStatefulRespWriter(w)
		next.ServeHTTP(srw, r.WithContext(logger.NewContext(ctx, log)))

		status := srw.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(reqTime)

		route := routeLabel(r)
		span.SetName(r.Method + " " + route)

		labels := []attribute.KeyValue{
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		}

		span.SetAttributes(append(labels,
			attribute.String("http.target", r.URL.Path),
			attribute.String("http.user_agent", r.UserAgent()),
			attribute.String("net.peer.addr", r.RemoteAddr),
			attribute.String("http.request.body_2048", reqBody.String()),
			attribute.Int("http.response.status", status),
			attribute.String("http.response.body_2048", srw.body.String()),
		)...)

		requestsCount.Add(ctx, 1, metric.WithAttributes(append(labels, attribute.Int("http.response.code", status))...))
		requestTimeHist.Record(ctx, elapsed.Milliseconds(), metric.WithAttributes(labels...))

		log.Debug("request handled", slog.Int("status", status), slog.Duration("elapsed", elapsed))

		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
			return
		}
		span.SetStatus(codes.Ok, "")
	})
}

// UnmatchedRoute labels requests that matched no route, so unknown paths
// share one metric series.
const UnmatchedRoute = "unmatched"

// routeLabel returns the chi pattern the request was routed to. Call it
// after the router has run.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return UnmatchedRoute
}

// statefulRespWriter keeps sent status and the head of the body after WriterHeader/Write calls
type statefulRespWriter struct {
	http.ResponseWriter
	status int
	body   capture
}

func newStatefulRespWriter(w http.ResponseWriter) *statefulRespWriter {
	return &statefulRespWriter{ResponseWriter: w}
}

func (w *statefulRespWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statefulRespWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	w.body.add(b)
	return w.ResponseWriter.Write(b)
}

const BodyMaxLen = 2048

// capture keeps the first BodyMaxLen bytes of a stream and its total size.
type capture struct {
	head  []byte
	total int
}

func (c *capture) add(b []byte) {
	c.total += len(b)
	if room := BodyMaxLen - len(c.head); room > 0 {
		c.head = append(c.head, b[:min(len(b), room)]...)
	}
}

func (c *capture) String() string {
	if c.total > len(c.head) {
		return fmt.Sprintf("%s...(%d bytes)", c.head, c.total)
	}
	return string(c.head)
}

// bodyCapture records what the handler reads from the request body.
type bodyCapture struct {
	io.ReadCloser
	capture
}

func (b *bodyCapture) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.add(p[:n])
	return n, err
}
