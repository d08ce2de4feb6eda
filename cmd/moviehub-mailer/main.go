package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/pure-golang/moviehub-mailer/api"
	"github.com/pure-golang/moviehub-mailer/env"
	"github.com/pure-golang/moviehub-mailer/httpserver"
	"github.com/pure-golang/moviehub-mailer/httpserver/std"
	"github.com/pure-golang/moviehub-mailer/logger"
	"github.com/pure-golang/moviehub-mailer/mail"
	"github.com/pure-golang/moviehub-mailer/mail/noop"
	"github.com/pure-golang/moviehub-mailer/mail/smtp"
	"github.com/pure-golang/moviehub-mailer/metrics"
	"github.com/pure-golang/moviehub-mailer/tracing"
	"github.com/pure-golang/moviehub-mailer/tracing/jaeger"
	"github.com/pure-golang/moviehub-mailer/welcome"
)

type config struct {
	DryRun bool `envconfig:"MAIL_DRY_RUN" default:"false"`
}

func main() {
	if err := run(); err != nil {
		slog.Default().Error("moviehub-mailer stopped", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	var (
		appConf     config
		logConf     logger.Config
		metricsConf metrics.Config
		traceConf   jaeger.Config
		smtpConf    smtp.Config
	)
	if err := env.InitConfig(&appConf, &logConf, &metricsConf, &traceConf, &smtpConf); err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	logger.InitDefault(logConf)
	log := slog.Default()

	metricsCloser, err := metrics.InitDefault(metricsConf)
	if err != nil {
		return errors.Wrap(err, "failed to init metrics")
	}
	defer closeLogged(log, "metrics", metricsCloser)

	if traceConf.Enabled() {
		provider, err := tracing.Init(jaeger.NewProviderBuilder(traceConf))
		if err != nil {
			log.Warn("tracing disabled", "error", err.Error())
		}
		defer closeLogged(log, "tracing", provider)
	}

	transport := newTransport(log, appConf, smtpConf)
	defer closeLogged(log, "mail transport", transport)

	var server httpserver.Provider = std.New(std.DefaultConfig(), api.NewRouter(welcome.NewMailer(transport, smtpConf.Username)))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		return errors.Wrap(err, "http server stopped")
	}

	return errors.Wrap(server.Close(), "failed to close http server")
}

func newTransport(log *slog.Logger, appConf config, smtpConf smtp.Config) mail.Transport {
	if appConf.DryRun {
		log.Warn("dry run: welcome emails are logged, not sent")
		return noop.NewSender()
	}

	smtpConf = smtpConf.WithDefaults()
	log.Info("smtp transport configured",
		slog.String("host", smtpConf.Host),
		slog.Int("port", smtpConf.Port),
		slog.String("from", smtpConf.Username),
	)
	return smtp.NewSender(smtpConf, nil)
}

func closeLogged(log *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err.Error())
	}
}
