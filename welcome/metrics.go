package welcome

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pure-golang/moviehub-mailer/mail"
)

var (
	meter = otel.GetMeterProvider().Meter("github.com/pure-golang/moviehub-mailer/welcome")
	// nolint:errcheck // Sync OpenTelemetry instruments never return errors
	sentCount, _    = meter.Int64Counter("welcome_emails_sent")
	sendDuration, _ = meter.Int64Histogram("welcome_email_send_time", metric.WithUnit("ms"))
)

func recordSend(ctx context.Context, res mail.Result, started time.Time) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome(res)))
	sentCount.Add(ctx, 1, attrs)
	sendDuration.Record(ctx, time.Since(started).Milliseconds(), attrs)
}

func outcome(res mail.Result) string {
	if res.OK() {
		return "sent"
	}
	return res.Failure.String()
}
