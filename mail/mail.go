package mail

import (
	"context"
	"io"
)

// Transport delivers a composed Email to a mail server.
type Transport interface {
	Send(ctx context.Context, email Email) error
	io.Closer
}

// Email represents a single outbound message.
type Email struct {
	From    Address
	To      []Address
	Subject string

	// Headers are extra headers set on the message (Message-ID, X-*).
	Headers map[string]string

	Body string // Plain text body
	HTML string // HTML alternative (optional)
}

// Address represents an email address.
type Address struct {
	Name    string // "MovieHub"
	Address string // "noreply@moviehub.example"
}

// Recipients returns bare addresses of all To entries.
func (e Email) Recipients() []string {
	result := make([]string, len(e.To))
	for i, addr := range e.To {
		result[i] = addr.Address
	}
	return result
}
