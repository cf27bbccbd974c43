// Package status holds the liveness record that is broadcast to clients.
package status

import (
	"sync"
	"time"
)

// State is the coarse liveness of the server.
type State string

// Server states.
const (
	Online  State = "Online"
	Offline State = "Offline"
)

// Status is a point-in-time copy of the server status.
type Status struct {
	State            State     `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	ConnectedClients int       `json:"connected_clients"`
}

// Store guards the single Status of a server. All operations are atomic
// with respect to each other.
type Store struct {
	mu     sync.Mutex
	status Status
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns a Store in the Online state with no clients.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.status = Status{
		State:     Online,
		Timestamp: s.now(),
	}
	return s
}

// Snapshot returns a consistent copy of all fields.
func (s *Store) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetState changes the state and refreshes the timestamp.
func (s *Store) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = state
	s.touch()
}

// IncrementClients adds one to the connected client count.
func (s *Store) IncrementClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.ConnectedClients++
	s.touch()
}

// DecrementClients subtracts one from the connected client count. The count
// never drops below zero.
func (s *Store) DecrementClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.ConnectedClients > 0 {
		s.status.ConnectedClients--
	}
	s.touch()
}

// RefreshTimestamp sets the timestamp to now.
func (s *Store) RefreshTimestamp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
}

// touch advances the timestamp. It never moves backwards.
func (s *Store) touch() {
	if now := s.now(); now.After(s.status.Timestamp) {
		s.status.Timestamp = now
	}
}
