// Package events publishes domain events to NATS after the change they
// describe has been committed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"apptrueq/internal/domain/service"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/metrics"
)

type NATSPublisher struct {
	nc      *nats.Conn
	metrics *metrics.Metrics
}

func NewNATSPublisher(url string, m *metrics.Metrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("apptrueq-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, metrics: m}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	return p.nc.Publish(subject, data)
}

func (p *NATSPublisher) PublishJSON(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		p.count("error")
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}
	if err := p.Publish(ctx, subject, data); err != nil {
		p.count("error")
		return err
	}
	p.count("ok")
	return nil
}

func (p *NATSPublisher) count(result string) {
	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(result).Inc()
	}
}

// Close flushes pending messages before closing the connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		logger.Warn("NATS drain failed: %v", err)
		p.nc.Close()
	}
}

// NopPublisher is used when no NATS_URL is configured.
type NopPublisher struct{}

func (NopPublisher) PublishJSON(ctx context.Context, subject string, payload any) error {
	logger.Debug("event %s not published: no event bus configured", subject)
	return nil
}

func (NopPublisher) Close() {}

var (
	_ service.EventPublisher = (*NATSPublisher)(nil)
	_ service.EventPublisher = NopPublisher{}
)
