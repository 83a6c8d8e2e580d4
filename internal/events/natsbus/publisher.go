// Package natsbus publishes storefront events on NATS subjects.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tailorshop/internal/events"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	connectAttempts = 3
	publishAttempts = 3
)

// Publisher sends events to "<prefix>.<event type>".
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

// Connect dials url, retrying a few times before giving up.
func Connect(ctx context.Context, url, prefix string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var lastErr error
	for i := 0; i < connectAttempts; i++ {
		nc, err := nats.Connect(url,
			nats.Name("tailorshop"),
			nats.MaxReconnects(5),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats disconnected", zap.Error(err))
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
			}),
		)
		if err == nil {
			logger.Info("connected to nats", zap.String("url", url))
			return &Publisher{nc: nc, prefix: prefix, logger: logger}, nil
		}
		lastErr = err
		logger.Warn("nats connect failed", zap.Int("attempt", i+1), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect nats: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("connect nats after retries: %w", lastErr)
}

// Subject returns the subject an event type is published on.
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := Subject(p.prefix, e.Type)

	var lastErr error
	for i := 0; i < publishAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.nc.Publish(subject, data); err != nil {
			lastErr = err
			p.logger.Warn("nats publish failed", zap.Int("attempt", i+1), zap.Error(err))
			continue
		}
		if err := p.nc.FlushTimeout(2 * time.Second); err != nil {
			lastErr = err
			p.logger.Warn("nats flush failed", zap.Error(err))
			continue
		}
		return nil
	}
	return fmt.Errorf("publish %s: %w", subject, lastErr)
}

func (p *Publisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		p.nc.Close()
	}
}
