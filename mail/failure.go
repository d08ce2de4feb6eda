package mail

import (
	"github.com/pkg/errors"
)

// Failure classifies why a send did not succeed.
type Failure int

const (
	FailureNone       Failure = iota
	FailureAuth               // credentials rejected by the mail server
	FailureConnection         // mail server unreachable or TLS/greeting failed
	FailureUnknown            // anything else during composition or transmission
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureAuth:
		return "auth"
	case FailureConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Error is returned by transports with the failure class attached.
type Error struct {
	Kind Failure
	Err  error
}

// NewError tags err with kind. Returns nil for nil err.
func NewError(kind Failure, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Cause keeps pkg/errors.Cause working through the tag.
func (e *Error) Cause() error { return e.Err }

// KindOf reports the failure class of err.
// Untagged errors are FailureUnknown, nil is FailureNone.
func KindOf(err error) Failure {
	if err == nil {
		return FailureNone
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}

	return FailureUnknown
}

// Result is the outcome of a send attempt.
type Result struct {
	Failure Failure
	Err     error
}

// ResultOf converts a transport error into a Result.
func ResultOf(err error) Result {
	return Result{Failure: KindOf(err), Err: err}
}

// OK reports whether the email was handed to the server.
func (r Result) OK() bool {
	return r.Failure == FailureNone
}
