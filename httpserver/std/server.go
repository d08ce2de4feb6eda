package std

import (
	"context"
	stdErr "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/moviehub-mailer/httpserver"
)

const (
	ShutdownTimeout = 15 * time.Second

	DefaultHost = "0.0.0.0"
	DefaultPort = 5000
)

var _ httpserver.ListenerProvider = (*Server)(nil)

// Config is not environment-driven: the service always listens on
// DefaultHost:DefaultPort. Tests bind their own listener.
type Config struct {
	Host        string
	Port        int
	ReadTimeout time.Duration
}

// DefaultConfig returns the fixed listen configuration.
func DefaultConfig() Config {
	return Config{
		Host:        DefaultHost,
		Port:        DefaultPort,
		ReadTimeout: 30 * time.Second,
	}
}

type Server struct {
	logger *slog.Logger
	server *http.Server
	config Config
}

func New(c Config, h http.Handler) *Server {
	logger := slog.Default().WithGroup("webserver")

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", c.Host, c.Port),
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
			ReadTimeout:       c.ReadTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		logger: logger,
		config: c,
	}
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start listens on the configured address and blocks until Close.
func (s *Server) Start() error {
	s.logger.Info("server starting", slog.String("addr", s.server.Addr))

	return s.result(s.server.ListenAndServe())
}

// Serve blocks serving l until Close.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("server starting", slog.String("addr", l.Addr().String()))

	return s.result(s.server.Serve(l))
}

func (s *Server) result(err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return errors.Wrapf(err, "serve failed")
}

// Close waits up to ShutdownTimeout for in-flight requests (and their SMTP
// round-trips) before forcing connections closed.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if err != nil {
		err = stdErr.Join(err, errors.Wrapf(s.server.Close(), "failed to close server"))
	}

	s.logger.Info("server closed")

	return errors.Wrapf(err, "server shutdown failed")
}
