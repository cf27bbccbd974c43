package handlers

import (
	"net/http"

	ws "github.com/agentstation/stockguard/internal/server/websocket"
)

// HandleWebSocket handles GET /api/v1/ws. The request goroutine serves the
// client until it disconnects.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(conn, h.wsHub.Registry(), h.logger)
	client.Serve(h.baseCtx)
}

// HandleSSE handles GET /api/v1/updates/stream.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}
