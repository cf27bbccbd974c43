package websocket

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/stockguard/internal/server/events"
	"github.com/agentstation/stockguard/pkg/constants"
)

// SendResult is the outcome of delivering one broadcast to one connection.
type SendResult struct {
	ConnID string
	Err    error

	conn Conn
}

// Hub broadcasts events to every connection in a Registry.
type Hub struct {
	registry      *Registry
	logger        *zerolog.Logger
	writeWait     time.Duration
	maxConcurrent int
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithWriteWait bounds each individual send.
func WithWriteWait(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeWait = d
		}
	}
}

// WithMaxConcurrentSends caps the goroutines used by one broadcast.
func WithMaxConcurrentSends(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.maxConcurrent = n
		}
	}
}

// NewHub creates a hub over registry.
func NewHub(registry *Registry, logger *zerolog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		registry:      registry,
		logger:        logger,
		writeWait:     constants.WriteWait,
		maxConcurrent: constants.MaxConcurrentSends,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registry returns the hub's registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return h.registry.Len()
}

// Broadcast encodes event once and sends it to every connection registered
// at the time of the call. Sends run concurrently outside the registry lock,
// each bounded by the write wait. A failed connection is unregistered and
// closed; its error is logged and returned in the results but never affects
// other connections. Broadcast returns after every send has finished.
//
// Cancelling ctx does not abort a pass in progress: each send is bounded only
// by the write wait.
func (h *Hub) Broadcast(ctx context.Context, event events.Event) []SendResult {
	data, err := event.Encode()
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to encode event")
		return nil
	}

	conns := h.registry.Snapshot()
	if len(conns) == 0 {
		return nil
	}

	passCtx := context.WithoutCancel(ctx)
	p := pool.NewWithResults[SendResult]().WithMaxGoroutines(h.maxConcurrent)
	for _, conn := range conns {
		p.Go(func() SendResult {
			sendCtx, cancel := context.WithTimeout(passCtx, h.writeWait)
			defer cancel()
			return SendResult{ConnID: conn.ID(), Err: conn.Send(sendCtx, data), conn: conn}
		})
	}
	results := p.Wait()

	failed := 0
	for _, res := range results {
		if res.Err == nil {
			continue
		}
		failed++
		if errors.Is(res.Err, context.Canceled) {
			// the connection is shutting down on its own
			h.logger.Debug().Str("client_id", res.ConnID).Msg("WebSocket send canceled")
			continue
		}
		h.logger.Warn().
			Err(res.Err).
			Str("client_id", res.ConnID).
			Str("event_type", string(event.Type)).
			Msg("WebSocket send failed, dropping client")
		if h.registry.Unregister(res.conn) {
			_ = res.conn.Close()
		}
	}

	h.logger.Debug().
		Str("event_type", string(event.Type)).
		Int("clients", len(conns)).
		Int("failed", failed).
		Msg("Event broadcasted")

	return results
}
