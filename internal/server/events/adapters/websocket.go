// Package adapters connects the event broker to concrete transports.
package adapters

import (
	"context"

	"github.com/agentstation/stockguard/internal/server/events"
	ws "github.com/agentstation/stockguard/internal/server/websocket"
)

// WebSocketName is the name the WebSocket subscriber registers under.
const WebSocketName = "websocket"

// WebSocketSubscriber delivers events to every WebSocket client.
type WebSocketSubscriber struct {
	hub *ws.Hub
}

// NewWebSocketSubscriber creates a new WebSocket subscriber.
func NewWebSocketSubscriber(hub *ws.Hub) *WebSocketSubscriber {
	return &WebSocketSubscriber{hub: hub}
}

// Name implements events.Subscriber.
func (w *WebSocketSubscriber) Name() string { return WebSocketName }

// Send broadcasts the event and waits for every client send to finish.
// Per-client failures are handled by the hub.
func (w *WebSocketSubscriber) Send(ctx context.Context, event events.Event) error {
	w.hub.Broadcast(ctx, event)
	return nil
}

// Close is a no-op; the server owns the hub's connections.
func (w *WebSocketSubscriber) Close() error {
	return nil
}
