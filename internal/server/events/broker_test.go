package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stockguard/internal/server/status"
	"github.com/agentstation/stockguard/pkg/inventory"
)

// mockSubscriber records every event it receives.
type mockSubscriber struct {
	name   string
	mu     sync.Mutex
	events []Event
	closed bool
	err    error
}

func (m *mockSubscriber) Name() string { return m.name }

func (m *mockSubscriber) Send(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSubscriber) Types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

func (m *mockSubscriber) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func TestBrokerDeliversInPublishOrder(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	first := &mockSubscriber{name: "first"}
	second := &mockSubscriber{name: "second"}
	b.Subscribe(first)
	b.Subscribe(second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	p := inventory.Product{ID: 1, Name: "Widget", Quantity: 3, LowStockThreshold: 5}
	b.Publish(NewProductCreated(p))
	b.Publish(NewProductUpdated(p))
	b.Publish(NewLowStockAlert(p))
	b.Publish(NewProductDeleted(p))

	want := []EventType{ProductCreated, ProductUpdated, LowStockAlert, ProductDeleted}
	for _, sub := range []*mockSubscriber{first, second} {
		require.Eventually(t, func() bool { return len(sub.Types()) == len(want) },
			time.Second, 5*time.Millisecond)
		assert.Equal(t, want, sub.Types(), sub.name)
	}
}

func TestBrokerSubscriberErrorDoesNotStopOthers(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	failing := &mockSubscriber{name: "failing", err: errors.New("boom")}
	healthy := &mockSubscriber{name: "healthy"}
	b.Subscribe(failing)
	b.Subscribe(healthy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	b.Publish(NewCategoryCreated(inventory.Category{ID: 1, Name: "Tools"}))
	b.Publish(NewCategoryDeleted(inventory.Category{ID: 1, Name: "Tools"}))

	require.Eventually(t, func() bool { return len(healthy.Types()) == 2 },
		time.Second, 5*time.Millisecond)
	assert.Len(t, failing.Types(), 2)
}

func TestBrokerPublishNeverBlocks(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBrokerWithQueue(&logger, 2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			b.Publish(NewProductCreated(inventory.Product{ID: int64(i)}))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running broker")
	}
	assert.Equal(t, int64(2), b.EventsPublished())
	assert.Equal(t, int64(8), b.EventsDropped())
	assert.Equal(t, 2, b.QueueDepth())
}

func TestBrokerShutdownClosesSubscribers(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	sub := &mockSubscriber{name: "sub"}
	b.Subscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	cancel()
	<-done
	assert.True(t, sub.Closed())
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBrokerUnsubscribe(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	sub := &mockSubscriber{name: "sub"}

	b.Subscribe(sub)
	assert.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())
	assert.True(t, sub.Closed())
}

func TestBrokerPublishExceptSkipsNamedSubscriber(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	ws := &mockSubscriber{name: "websocket"}
	mqtt := &mockSubscriber{name: "mqtt"}
	b.Subscribe(ws)
	b.Subscribe(mqtt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	b.PublishExcept(NewStatusTick(status.NewStore().Snapshot()), "websocket")
	b.Publish(NewProductCreated(inventory.Product{ID: 1, Name: "Widget"}))

	require.Eventually(t, func() bool { return len(mqtt.Types()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []EventType{StatusTick, ProductCreated}, mqtt.Types())
	require.Eventually(t, func() bool { return len(ws.Types()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []EventType{ProductCreated}, ws.Types())
}

func TestBrokerDrainsExceptEventsOnShutdown(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	mqtt := &mockSubscriber{name: "mqtt"}
	b.Subscribe(mqtt)

	// queued before Run starts, so only the shutdown drain can deliver it
	b.PublishExcept(NewStatusTick(status.NewStore().Snapshot()), "websocket")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Run(ctx)

	assert.Equal(t, []EventType{StatusTick}, mqtt.Types())
	assert.True(t, mqtt.Closed())
}
