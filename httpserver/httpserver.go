package httpserver

import (
	"io"
	"net"
)

// Provider is an HTTP server that can be started and gracefully closed.
type Provider interface {
	Start() error
	io.Closer
}

// ListenerProvider serves on an already bound listener.
type ListenerProvider interface {
	Provider
	Serve(l net.Listener) error
}
