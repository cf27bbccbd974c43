package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/agentstation/stockguard/pkg/constants"
)

// Broker queues published events and delivers them to every subscriber.
//
// A single loop dispatches events one at a time, and each subscriber's Send
// returns before the next event is dispatched, so every subscriber observes
// the publish order.
type Broker struct {
	subscribers []Subscriber
	events      chan queued
	mu          sync.RWMutex
	logger      *zerolog.Logger

	published atomic.Int64
	dropped   atomic.Int64
}

// queued is an event waiting for dispatch. except names a subscriber that
// must not receive it.
type queued struct {
	event  Event
	except string
}

// NewBroker creates a broker with a queue of constants.EventQueueSize.
func NewBroker(logger *zerolog.Logger) *Broker {
	return NewBrokerWithQueue(logger, constants.EventQueueSize)
}

// NewBrokerWithQueue creates a broker with the given queue depth.
func NewBrokerWithQueue(logger *zerolog.Logger, size int) *Broker {
	if size < 1 {
		size = 1
	}
	return &Broker{
		subscribers: make([]Subscriber, 0),
		events:      make(chan queued, size),
		logger:      logger,
	}
}

// Run dispatches queued events until ctx is cancelled. Events already
// queued are still delivered, then subscribers are closed.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.drain(context.WithoutCancel(ctx))
			b.mu.Lock()
			for _, sub := range b.subscribers {
				if err := sub.Close(); err != nil {
					b.logger.Warn().Err(err).Str("subscriber", sub.Name()).Msg("Failed to close subscriber")
				}
			}
			b.subscribers = nil
			b.mu.Unlock()
			b.logger.Info().Msg("Event broker shut down")
			return

		case q := <-b.events:
			b.dispatch(ctx, q)
		}
	}
}

// drain dispatches events still queued at shutdown.
func (b *Broker) drain(ctx context.Context) {
	for {
		select {
		case q := <-b.events:
			b.dispatch(ctx, q)
		default:
			return
		}
	}
}

func (b *Broker) dispatch(ctx context.Context, q queued) {
	event := q.event

	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		if q.except == "" || sub.Name() != q.except {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Send(ctx, event); err != nil {
			b.logger.Warn().
				Err(err).
				Str("subscriber", sub.Name()).
				Str("event_type", string(event.Type)).
				Msg("Failed to send event to subscriber")
		}
	}

	b.logger.Debug().
		Str("event_type", string(event.Type)).
		Int("subscribers", len(subs)).
		Msg("Event broadcasted")
}

// Publish queues an event. When the queue is full the event is dropped.
func (b *Broker) Publish(event Event) {
	b.enqueue(queued{event: event})
}

// PublishExcept queues an event for every subscriber other than the one
// named subscriber. It is used for events already delivered to that
// transport directly.
func (b *Broker) PublishExcept(event Event, subscriber string) {
	b.enqueue(queued{event: event, except: subscriber})
}

func (b *Broker) enqueue(q queued) {
	event := q.event
	select {
	case b.events <- q:
		b.published.Add(1)
	default:
		b.dropped.Add(1)
		b.logger.Warn().
			Str("event_type", string(event.Type)).
			Msg("Event queue full, event dropped")
	}
}

// Subscribe registers a subscriber. It may be called before or after Run.
func (b *Broker) Subscribe(sub Subscriber) {
	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	n := len(b.subscribers)
	b.mu.Unlock()

	b.logger.Info().
		Str("subscriber", sub.Name()).
		Int("total_subscribers", n).
		Msg("Subscriber registered")
}

// Unsubscribe removes and closes a subscriber.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	for i, s := range b.subscribers {
		if s == sub {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			_ = s.Close()
			break
		}
	}
	n := len(b.subscribers)
	b.mu.Unlock()

	b.logger.Info().
		Str("subscriber", sub.Name()).
		Int("total_subscribers", n).
		Msg("Subscriber unregistered")
}

// SubscriberCount returns the current number of subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

var _ Publisher = (*Broker)(nil)

// EventsPublished returns the number of events accepted by Publish.
func (b *Broker) EventsPublished() int64 { return b.published.Load() }

// EventsDropped returns the number of events dropped because the queue was full.
func (b *Broker) EventsDropped() int64 { return b.dropped.Load() }

// QueueDepth returns the number of events waiting for dispatch.
func (b *Broker) QueueDepth() int { return len(b.events) }
