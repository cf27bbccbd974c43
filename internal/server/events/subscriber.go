package events

import "context"

// Publisher accepts events for delivery. Publish never blocks on delivery
// and never fails the caller.
type Publisher interface {
	Publish(Event)
}

// Subscriber is an event consumer. Implementations adapt the event stream to
// a transport (WebSocket, SSE, NATS, MQTT).
type Subscriber interface {
	// Name identifies the subscriber in logs.
	Name() string

	// Send delivers one event. Events reach a subscriber in publish order.
	Send(ctx context.Context, e Event) error

	// Close releases the subscriber's resources.
	Close() error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

// Publish calls f(e).
func (f PublisherFunc) Publish(e Event) { f(e) }

// Discard is a Publisher that drops every event.
var Discard Publisher = PublisherFunc(func(Event) {})
