package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stockguard/internal/server/events"
	"github.com/agentstation/stockguard/pkg/inventory"
)

func newTestHub(opts ...HubOption) (*Hub, *Registry) {
	logger := zerolog.Nop()
	reg, _ := newTestRegistry()
	return NewHub(reg, &logger, opts...), reg
}

func TestHubBroadcastReachesEveryConnection(t *testing.T) {
	hub, reg := newTestHub()
	conns := make([]*fakeConn, 5)
	for i := range conns {
		conns[i] = newFakeConn(fmt.Sprintf("c%d", i))
		reg.Register(conns[i])
	}

	results := hub.Broadcast(context.Background(), events.NewProductCreated(inventory.Product{ID: 1, Name: "Widget"}))
	assert.Len(t, results, 5)

	for _, c := range conns {
		msgs := c.Messages()
		require.Len(t, msgs, 1, c.ID())
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(msgs[0]), &got))
		assert.Equal(t, "product_created", got["type"])
	}
}

func TestHubBroadcastNoConnections(t *testing.T) {
	hub, _ := newTestHub()
	assert.Empty(t, hub.Broadcast(context.Background(), events.NewProductCreated(inventory.Product{ID: 1})))
}

func TestHubBroadcastIsolatesFailures(t *testing.T) {
	hub, reg := newTestHub()
	a, b, c := newFakeConn("A"), newFakeConn("B"), newFakeConn("C")
	b.fail = errBrokenPipe
	reg.Register(a)
	reg.Register(b)
	reg.Register(c)

	results := hub.Broadcast(context.Background(), events.NewProductUpdated(inventory.Product{ID: 1, Name: "Widget"}))

	failed := map[string]error{}
	for _, r := range results {
		if r.Err != nil {
			failed[r.ConnID] = r.Err
		}
	}
	assert.Equal(t, map[string]error{"B": errBrokenPipe}, failed)
	assert.Len(t, a.Messages(), 1)
	assert.Len(t, c.Messages(), 1)

	// B is pruned and closed; the count follows.
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2, reg.status.Snapshot().ConnectedClients)
	assert.Equal(t, 1, b.Closed())

	hub.Broadcast(context.Background(), events.NewProductDeleted(inventory.Product{ID: 1}))
	assert.Len(t, a.Messages(), 2)
	assert.Len(t, c.Messages(), 2)
}

func TestHubBroadcastSlowConnectionTimesOut(t *testing.T) {
	hub, reg := newTestHub(WithWriteWait(20 * time.Millisecond))
	slow, fast := newFakeConn("slow"), newFakeConn("fast")
	slow.delay = time.Second
	reg.Register(slow)
	reg.Register(fast)

	start := time.Now()
	hub.Broadcast(context.Background(), events.NewCategoryCreated(inventory.Category{ID: 1, Name: "Tools"}))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	assert.Len(t, fast.Messages(), 1)
	assert.Equal(t, 1, reg.Len())
}

func TestHubBroadcastPreservesOrderPerConnection(t *testing.T) {
	hub, reg := newTestHub(WithMaxConcurrentSends(2))
	conns := make([]*fakeConn, 8)
	for i := range conns {
		conns[i] = newFakeConn(fmt.Sprintf("c%d", i))
		reg.Register(conns[i])
	}

	p := inventory.Product{ID: 4, Name: "Widget", Quantity: 3, LowStockThreshold: 5}
	hub.Broadcast(context.Background(), events.NewProductUpdated(p))
	hub.Broadcast(context.Background(), events.NewLowStockAlert(p))

	for _, c := range conns {
		msgs := c.Messages()
		require.Len(t, msgs, 2)
		assert.Contains(t, msgs[0], `"type":"product_updated"`)
		assert.Contains(t, msgs[1], `"type":"alert"`)
	}
}

func TestHubBroadcastEncodeFailure(t *testing.T) {
	hub, reg := newTestHub()
	a := newFakeConn("a")
	reg.Register(a)

	assert.Nil(t, hub.Broadcast(context.Background(), events.Event{Type: events.ProductCreated}))
	assert.Empty(t, a.Messages())
	assert.Equal(t, 1, reg.Len())
}

func TestHubBroadcastSurvivesCancelledContext(t *testing.T) {
	hub, reg := newTestHub(WithMaxConcurrentSends(1))
	conns := []*fakeConn{newFakeConn("A"), newFakeConn("B"), newFakeConn("C")}
	for _, c := range conns {
		c.delay = 50 * time.Millisecond
		reg.Register(c)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	defer cancel()

	results := hub.Broadcast(ctx, events.NewProductCreated(inventory.Product{ID: 1, Name: "Widget"}))

	for _, r := range results {
		assert.NoError(t, r.Err, r.ConnID)
	}
	for _, c := range conns {
		assert.Len(t, c.Messages(), 1, c.ID())
		assert.Zero(t, c.Closed(), c.ID())
	}
	assert.Equal(t, 3, reg.Len())
}

func TestHubBroadcastSkipsLateRegistrations(t *testing.T) {
	hub, reg := newTestHub()
	slow := newFakeConn("slow")
	slow.delay = 100 * time.Millisecond
	reg.Register(slow)

	late := newFakeConn("late")
	registered := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		reg.Register(late)
		close(registered)
	}()

	results := hub.Broadcast(context.Background(), events.NewProductCreated(inventory.Product{ID: 1, Name: "Widget"}))
	<-registered

	require.Len(t, results, 1)
	assert.Equal(t, "slow", results[0].ConnID)
	assert.Len(t, slow.Messages(), 1)
	assert.Empty(t, late.Messages())
	assert.Equal(t, 2, reg.Len())
}

func TestHubBroadcastAfterUnregister(t *testing.T) {
	hub, reg := newTestHub()
	a, b, c := newFakeConn("A"), newFakeConn("B"), newFakeConn("C")
	reg.Register(a)
	reg.Register(b)
	reg.Register(c)

	require.True(t, reg.Unregister(b))
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2, reg.status.Snapshot().ConnectedClients)

	hub.Broadcast(context.Background(), events.NewProductCreated(inventory.Product{ID: 1, Name: "Widget"}))

	for _, conn := range []*fakeConn{a, c} {
		msgs := conn.Messages()
		require.Len(t, msgs, 1, conn.ID())
		var got struct {
			Type    string `json:"type"`
			Product struct {
				Name string `json:"name"`
			} `json:"product"`
		}
		require.NoError(t, json.Unmarshal([]byte(msgs[0]), &got))
		assert.Equal(t, "product_created", got.Type)
		assert.Equal(t, "Widget", got.Product.Name)
	}
	assert.Empty(t, b.Messages())
}

func TestHubBroadcastStalledClientDelaysOnce(t *testing.T) {
	hub, reg := newTestHub(WithWriteWait(30 * time.Millisecond))
	fast, stalled := newFakeConn("fast"), newFakeConn("stalled")
	stalled.delay = time.Hour
	reg.Register(fast)
	reg.Register(stalled)

	start := time.Now()
	hub.Broadcast(context.Background(), events.NewProductCreated(inventory.Product{ID: 1, Name: "Widget"}))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, 1, reg.Len())

	start = time.Now()
	hub.Broadcast(context.Background(), events.NewProductDeleted(inventory.Product{ID: 1}))
	assert.Less(t, time.Since(start), 30*time.Millisecond)
	assert.Len(t, fast.Messages(), 2)
}
