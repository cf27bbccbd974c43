package adapters

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"

	"github.com/agentstation/stockguard/internal/server/events"
	"github.com/agentstation/stockguard/internal/server/sse"
)

// SSESubscriber delivers events to every SSE stream.
type SSESubscriber struct {
	broadcaster *sse.Broadcaster
	seq         atomic.Uint64
}

// NewSSESubscriber creates a new SSE subscriber.
func NewSSESubscriber(broadcaster *sse.Broadcaster) *SSESubscriber {
	return &SSESubscriber{broadcaster: broadcaster}
}

// Name implements events.Subscriber.
func (s *SSESubscriber) Name() string { return "sse" }

// Send implements events.Subscriber. The event type becomes the SSE event
// name and a sequence number its id.
func (s *SSESubscriber) Send(_ context.Context, event events.Event) error {
	data, err := event.Encode()
	if err != nil {
		return err
	}
	s.broadcaster.Broadcast(sse.Event{
		Event: string(event.Type),
		ID:    strconv.FormatUint(s.seq.Add(1), 10),
		Data:  json.RawMessage(data),
	})
	return nil
}

// Close ends every open stream. The broker calls it after the queue is
// drained, so streams see the final status first.
func (s *SSESubscriber) Close() error {
	s.broadcaster.Close()
	return nil
}
