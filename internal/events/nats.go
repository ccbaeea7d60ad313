package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

// NewNATS constructs a thin NATS-based publisher.
func NewNATS(log *slog.Logger, nc Conn) Publisher {
	return &natsPublisher{log: log.With("component", "events"), nc: nc}
}

type natsPublisher struct {
	log *slog.Logger
	nc  Conn
}

func (p *natsPublisher) Publish(_ context.Context, ev Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	subject := ev.Subject()
	if err := p.nc.Publish(subject, body); err != nil {
		return err
	}
	p.log.Debug("event published", "subject", subject, "id", ev.ID)
	return nil
}

// Connect dials the broker at url. Reconnects are handled by the client.
func Connect(url, name string, log *slog.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
}
