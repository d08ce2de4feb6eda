package smtp

import (
	"context"
	"crypto/tls"
	"net/textproto"
	"sync"

	gomail "github.com/go-mail/mail"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/moviehub-mailer/mail"
)

var _ mail.Transport = (*Sender)(nil)

// Dialer opens an authenticated SMTP session.
// *gomail.Dialer satisfies it.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// DialerFunc builds a Dialer for one send.
type DialerFunc func(cfg Config) Dialer

// Sender implements mail.Transport on top of go-mail.
// Every Send opens its own connection and closes it before returning.
type Sender struct {
	mx     sync.RWMutex
	cfg    Config
	dialer DialerFunc
	closed bool
}

// SenderOptions contains options for creating a Sender.
type SenderOptions struct {
	// Dialer replaces the go-mail dialer, mostly for tests.
	Dialer DialerFunc
}

// NewSender creates a new SMTP Sender.
func NewSender(cfg Config, options *SenderOptions) *Sender {
	s := &Sender{
		cfg:    cfg.WithDefaults(),
		dialer: NewDialer,
	}
	if options != nil && options.Dialer != nil {
		s.dialer = options.Dialer
	}
	return s
}

// NewDialer returns a go-mail dialer for cfg.
// A fresh dialer is built per send because go-mail caches the negotiated
// auth mechanism on the Dialer.
func NewDialer(cfg Config) Dialer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	d.RetryFailure = false
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.Insecure, // #nosec G402 -- controlled by config
	}
	if !cfg.SSL {
		d.StartTLSPolicy = gomail.OpportunisticStartTLS
	}
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}
	return d
}

// Send delivers email: connect, authenticate, transmit, close.
// Returned errors are tagged with mail.Failure.
func (s *Sender) Send(ctx context.Context, email mail.Email) error {
	ctx, span := tracer.Start(ctx, "SMTP.Send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("smtp.from", email.From.Address),
		attribute.String("smtp.subject", email.Subject),
		attribute.StringSlice("smtp.to", email.Recipients()),
		attribute.String("smtp.host", s.cfg.Host),
		attribute.Int("smtp.port", s.cfg.Port),
		attribute.Bool("smtp.ssl", s.cfg.SSL),
	)

	s.mx.RLock()
	defer s.mx.RUnlock()

	if s.closed {
		err := errors.New("sender is closed")
		recordError(span, err, "sender is closed")
		return mail.NewError(mail.FailureUnknown, err)
	}

	msg, err := s.buildMessage(email)
	if err != nil {
		recordError(span, err, "failed to build message")
		return mail.NewError(mail.FailureUnknown, err)
	}

	if err := ctx.Err(); err != nil {
		recordError(span, err, "context canceled")
		return mail.NewError(mail.FailureUnknown, errors.Wrap(err, "send aborted"))
	}

	conn, err := s.dialer(s.cfg).Dial()
	if err != nil {
		kind := classifyDialError(err)
		recordError(span, err, "failed to dial")
		span.SetAttributes(attribute.String("smtp.failure", kind.String()))
		if kind == mail.FailureAuth {
			return mail.NewError(kind, errors.Wrap(err, "failed to authenticate"))
		}
		return mail.NewError(kind, errors.Wrapf(err, "failed to connect to %s:%d", s.cfg.Host, s.cfg.Port))
	}
	defer func() {
		// The message is either delivered or already failed at this point.
		_ = conn.Close()
	}()

	if err := gomail.Send(conn, msg); err != nil {
		recordError(span, err, "failed to send")
		return mail.NewError(mail.FailureUnknown, errors.Wrap(err, "failed to send email"))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// buildMessage converts email into a go-mail message.
// HTML becomes a multipart/alternative part after the plain body.
func (s *Sender) buildMessage(email mail.Email) (*gomail.Message, error) {
	from := email.From
	if from.Address == "" {
		from.Address = s.cfg.Username
	}
	if from.Address == "" {
		return nil, errors.New("no from address specified")
	}
	if len(email.To) == 0 {
		return nil, errors.New("no recipients specified")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from.Address, from.Name)

	to := make([]string, len(email.To))
	for i, addr := range email.To {
		to[i] = m.FormatAddress(addr.Address, addr.Name)
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", email.Subject)

	for k, v := range email.Headers {
		m.SetHeader(k, v)
	}

	m.SetBody("text/plain", email.Body)
	if email.HTML != "" {
		m.AddAlternative("text/html", email.HTML)
	}

	return m, nil
}

// Close closes the sender. Sends after Close fail.
func (s *Sender) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.closed = true
	return nil
}

// authCodes are SMTP replies that mean the credentials were refused.
var authCodes = map[int]bool{
	454: true, // temporary authentication failure
	530: true, // authentication required
	534: true, // authentication mechanism is too weak / app password required
	535: true, // username and password not accepted
}

// classifyDialError separates rejected credentials from everything else
// that can go wrong before the session is ready.
func classifyDialError(err error) mail.Failure {
	var reply *textproto.Error
	if errors.As(err, &reply) && authCodes[reply.Code] {
		return mail.FailureAuth
	}
	return mail.FailureConnection
}
