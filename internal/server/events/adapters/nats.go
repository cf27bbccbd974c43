package adapters

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/agentstation/stockguard/internal/server/events"
	"github.com/agentstation/stockguard/pkg/errors"
)

// natsConn is the part of *nats.Conn the subscriber uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSSubscriber forwards events to a NATS subject per event key, for
// example "stockguard.product.7".
type NATSSubscriber struct {
	conn   natsConn
	prefix string
}

// NewNATSSubscriber connects to url and publishes under prefix.
func NewNATSSubscriber(url, prefix string) (*NATSSubscriber, error) {
	nc, err := nats.Connect(url,
		nats.Name("stockguard"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.WrapResource("connect", "nats", url, err)
	}
	return newNATSSubscriber(nc, prefix), nil
}

func newNATSSubscriber(conn natsConn, prefix string) *NATSSubscriber {
	if prefix == "" {
		prefix = "stockguard"
	}
	return &NATSSubscriber{conn: conn, prefix: prefix}
}

// Subject returns the subject an event is published on.
func (n *NATSSubscriber) Subject(event events.Event) string {
	return n.prefix + "." + event.Key()
}

// Name implements events.Subscriber.
func (n *NATSSubscriber) Name() string { return "nats" }

// Send implements events.Subscriber.
func (n *NATSSubscriber) Send(_ context.Context, event events.Event) error {
	data, err := event.Encode()
	if err != nil {
		return err
	}
	return n.conn.Publish(n.Subject(event), data)
}

// Close drains pending messages and closes the connection.
func (n *NATSSubscriber) Close() error {
	return n.conn.Drain()
}
