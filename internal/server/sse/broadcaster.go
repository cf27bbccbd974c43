// Package sse streams inventory events to browsers over Server-Sent Events.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// keepAlivePeriod is how often an idle stream receives a comment line.
const keepAlivePeriod = 15 * time.Second

// clientBuffer is the number of events queued per client before events are
// skipped for that client.
const clientBuffer = 64

// Event is one SSE frame.
type Event struct {
	Event string `json:"event,omitempty"` // event name
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data"`

	comment string
}

// Broadcaster fans events out to every connected SSE stream.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
	closed  bool
	logger  *zerolog.Logger
}

// NewBroadcaster creates a new SSE broadcaster.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan Event]struct{}),
		logger:  logger,
	}
}

// Run sends keep-alive comments until ctx is cancelled. Open streams stay
// up until Close.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(keepAlivePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("SSE keep-alive stopped")
			return
		case <-ticker.C:
			b.Broadcast(Event{comment: "keep-alive"})
		}
	}
}

// Close ends every open stream. Later connections are refused.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for client := range b.clients {
		close(client)
	}
	b.clients = make(map[chan Event]struct{})
}

// Broadcast queues event on every stream without blocking.
func (b *Broadcaster) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client <- event:
		default:
			b.logger.Warn().Str("event", event.Event).Msg("SSE client buffer full, event skipped")
		}
	}
}

// ClientCount returns the number of connected SSE clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) add() (chan Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, false
	}
	client := make(chan Event, clientBuffer)
	b.clients[client] = struct{}{}
	b.logger.Info().Int("total_clients", len(b.clients)).Msg("SSE client connected")
	return client, true
}

func (b *Broadcaster) remove(client chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; !ok {
		return
	}
	delete(b.clients, client)
	close(client)
	b.logger.Info().Int("total_clients", len(b.clients)).Msg("SSE client disconnected")
}

// ServeHTTP streams events until the client goes away or the broadcaster
// is closed.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, ok := b.add()
	if !ok {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer b.remove(client)

	// streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	b.writeEvent(w, flusher, Event{
		Event: "connected",
		Data: map[string]any{
			"message":   "Connected to stockguard updates stream",
			"timestamp": time.Now().UTC(),
		},
	})

	for {
		select {
		case event, open := <-client:
			if !open {
				return
			}
			b.writeEvent(w, flusher, event)
		case <-r.Context().Done():
			return
		}
	}
}

func (b *Broadcaster) writeEvent(w http.ResponseWriter, flusher http.Flusher, event Event) {
	if event.comment != "" {
		_, _ = fmt.Fprintf(w, ": %s\n\n", event.comment)
		flusher.Flush()
		return
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to marshal SSE event data")
		return
	}

	if event.Event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event.Event)
	}
	if event.ID != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", event.ID)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
