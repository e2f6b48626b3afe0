package natsio

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/dmitrymomot/flagkit/pkg/logger"
)

var (
	ErrEmptyURL          = errors.New("natsio: empty url, set NATS_URL")
	ErrConnectionFailed  = errors.New("natsio: connection failed")
	ErrHealthcheckFailed = errors.New("natsio: healthcheck failed")
)

// Connect dials the server. Reconnections after the first success are
// handled by the client and reported through log.
func Connect(cfg Config, log *slog.Logger) (*nats.Conn, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyURL
	}
	if log == nil {
		log = slog.Default()
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(cfg.Timeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", logger.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", slog.String("url", nc.ConnectedUrlRedacted()))
		}),
	)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return nc, nil
}

// Healthcheck returns a probe doing a server round trip, for readiness endpoints.
func Healthcheck(nc *nats.Conn) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := nc.FlushWithContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
