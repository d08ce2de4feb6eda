package noop

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/pure-golang/moviehub-mailer/mail"
)

var _ mail.Transport = (*Recorder)(nil)

// Recorder keeps every email it is given. For tests only: it never
// forgets anything.
type Recorder struct {
	mx     sync.Mutex
	sent   []mail.Email
	calls  int
	err    error
	closed bool
}

// NewRecorder creates a Recorder that accepts every email.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// NewFailing creates a Recorder whose every Send returns err.
func NewFailing(err error) *Recorder {
	return &Recorder{err: err}
}

// Send records email. With a primed error the email is counted as an
// attempt but not recorded as sent.
func (r *Recorder) Send(_ context.Context, email mail.Email) error {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.calls++
	if r.closed {
		return mail.NewError(mail.FailureUnknown, errors.New("recorder is closed"))
	}
	if r.err != nil {
		return r.err
	}

	r.sent = append(r.sent, email)
	return nil
}

// Calls returns the number of Send attempts.
func (r *Recorder) Calls() int {
	r.mx.Lock()
	defer r.mx.Unlock()

	return r.calls
}

// Sent returns a copy of the recorded emails.
func (r *Recorder) Sent() []mail.Email {
	r.mx.Lock()
	defer r.mx.Unlock()

	out := make([]mail.Email, len(r.sent))
	copy(out, r.sent)
	return out
}

func (r *Recorder) Close() error {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.closed = true
	return nil
}
