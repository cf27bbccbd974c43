// Package websocket manages live WebSocket clients and fans events out to them.
package websocket

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/stockguard/internal/server/status"
)

// Conn is one client's outbound message channel.
type Conn interface {
	// ID identifies the connection in logs.
	ID() string

	// Send writes one text message. It must honor the context deadline.
	Send(ctx context.Context, msg []byte) error

	// Close terminates the connection. It must be safe to call more than once.
	Close() error
}

// Registry is the ordered set of live connections. Every change is mirrored
// into the status store, so the store's client count equals Len once each
// Register or Unregister returns.
type Registry struct {
	mu     sync.Mutex
	conns  []Conn
	status *status.Store
	logger *zerolog.Logger
}

// NewRegistry returns an empty registry bound to st.
func NewRegistry(st *status.Store, logger *zerolog.Logger) *Registry {
	return &Registry{
		conns:  make([]Conn, 0),
		status: st,
		logger: logger,
	}
}

// Register adds conn and increments the client count.
func (r *Registry) Register(conn Conn) {
	r.mu.Lock()
	r.conns = append(r.conns, conn)
	r.status.IncrementClients()
	n := len(r.conns)
	r.mu.Unlock()

	r.logger.Info().
		Str("client_id", conn.ID()).
		Int("total_clients", n).
		Msg("WebSocket client connected")
}

// Unregister removes conn and decrements the client count. It reports
// whether conn was present; removing an absent conn changes nothing.
func (r *Registry) Unregister(conn Conn) bool {
	r.mu.Lock()
	removed := false
	for i, c := range r.conns {
		if c == conn {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			r.status.DecrementClients()
			removed = true
			break
		}
	}
	n := len(r.conns)
	r.mu.Unlock()

	if removed {
		r.logger.Info().
			Str("client_id", conn.ID()).
			Int("total_clients", n).
			Msg("WebSocket client disconnected")
	}
	return removed
}

// Snapshot returns a copy of the live connections in registration order.
func (r *Registry) Snapshot() []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Conn, len(r.conns))
	copy(out, r.conns)
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// CloseAll unregisters and closes every connection.
func (r *Registry) CloseAll() {
	for _, conn := range r.Snapshot() {
		if r.Unregister(conn) {
			_ = conn.Close()
		}
	}
}
