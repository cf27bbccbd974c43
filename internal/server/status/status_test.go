package status

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestNewStore(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(WithClock(clock.Now))

	snap := s.Snapshot()
	assert.Equal(t, Online, snap.State)
	assert.Equal(t, 0, snap.ConnectedClients)
	assert.Equal(t, clock.Now(), snap.Timestamp)
}

func TestStoreCounterFloorsAtZero(t *testing.T) {
	s := NewStore()

	s.DecrementClients()
	assert.Equal(t, 0, s.Snapshot().ConnectedClients)

	s.IncrementClients()
	s.IncrementClients()
	s.DecrementClients()
	s.DecrementClients()
	s.DecrementClients()
	assert.Equal(t, 0, s.Snapshot().ConnectedClients)
}

func TestStoreOperationsRefreshTimestamp(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(WithClock(clock.Now))

	ops := map[string]func(){
		"increment": s.IncrementClients,
		"decrement": s.DecrementClients,
		"refresh":   s.RefreshTimestamp,
		"set_state": func() { s.SetState(Offline) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			before := s.Snapshot().Timestamp
			clock.Advance(time.Second)
			op()
			assert.True(t, s.Snapshot().Timestamp.After(before))
		})
	}
}

func TestStoreTimestampNeverMovesBackwards(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(WithClock(clock.Now))

	clock.Advance(-time.Hour)
	s.RefreshTimestamp()
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), s.Snapshot().Timestamp)
}

func TestStoreSetState(t *testing.T) {
	s := NewStore()
	s.IncrementClients()

	s.SetState(Offline)
	snap := s.Snapshot()
	assert.Equal(t, Offline, snap.State)
	assert.Equal(t, 1, snap.ConnectedClients, "state change keeps the count")
}

func TestStoreConcurrentCounting(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.IncrementClients()
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
			s.RefreshTimestamp()
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, s.Snapshot().ConnectedClients)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.DecrementClients()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, s.Snapshot().ConnectedClients)
}
