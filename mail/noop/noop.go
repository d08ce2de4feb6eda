package noop

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/pure-golang/moviehub-mailer/logger"
	"github.com/pure-golang/moviehub-mailer/mail"
)

var _ mail.Transport = (*Sender)(nil)

// Sender logs emails instead of delivering them and keeps nothing.
// Used for dry runs.
type Sender struct {
	mx     sync.RWMutex
	closed bool
}

// NewSender creates a new dry-run Sender.
func NewSender() *Sender {
	return &Sender{}
}

// Send writes one log line describing email.
func (n *Sender) Send(ctx context.Context, email mail.Email) error {
	n.mx.RLock()
	defer n.mx.RUnlock()

	if n.closed {
		return mail.NewError(mail.FailureUnknown, errors.New("sender is closed"))
	}

	logger.FromContext(ctx).Info("dry run: email not sent",
		"from", email.From.Address,
		"to", email.Recipients(),
		"subject", email.Subject,
		"message_id", email.Headers["Message-ID"],
	)
	return nil
}

// Close marks the sender closed. Later sends fail.
func (n *Sender) Close() error {
	n.mx.Lock()
	defer n.mx.Unlock()

	n.closed = true
	return nil
}
