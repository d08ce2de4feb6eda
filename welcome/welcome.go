// Package welcome sends the MovieHub welcome email.
package welcome

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/moviehub-mailer/logger"
	"github.com/pure-golang/moviehub-mailer/mail"
)

// Mailer composes and sends welcome emails through a mail.Transport.
type Mailer struct {
	transport mail.Transport
	sender    string
}

// NewMailer creates a Mailer that sends as sender.
func NewMailer(transport mail.Transport, sender string) *Mailer {
	return &Mailer{
		transport: transport,
		sender:    sender,
	}
}

// SendWelcome sends the welcome email to address and reports the outcome.
// It never panics or returns an error; the failure class is in the Result.
func (m *Mailer) SendWelcome(ctx context.Context, name, address string) (res mail.Result) {
	started := time.Now()
	log := logger.FromContext(ctx).With("to", address)
	ctx = logger.NewContext(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			res = mail.ResultOf(mail.NewError(mail.FailureUnknown, fmt.Errorf("panic while sending: %v", r)))
		}
		report(ctx, res)
		recordSend(ctx, res, started)
	}()

	log.Info("sending welcome email", "name", name)

	email, err := Compose(m.sender, name, address)
	if err != nil {
		return mail.ResultOf(mail.NewError(mail.FailureUnknown, errors.Wrap(err, "failed to compose welcome email")))
	}

	return mail.ResultOf(m.transport.Send(ctx, email))
}

// report writes one log line per outcome; each failure class has its own message.
func report(ctx context.Context, res mail.Result) {
	switch res.Failure {
	case mail.FailureNone:
		logger.FromContext(ctx).Info("welcome email sent")
	case mail.FailureAuth:
		logger.FromContextWithErr(ctx, res.Err).
			With("failure", res.Failure.String()).
			Error("authentication failed, check the SMTP app password")
	case mail.FailureConnection:
		logger.FromContextWithErr(ctx, res.Err).
			With("failure", res.Failure.String()).
			Error("could not connect to SMTP server")
	default:
		logger.FromContextWithErr(ctx, res.Err).
			With("failure", res.Failure.String()).
			Error("failed to send welcome email")
	}
}
