// Package heartbeat periodically broadcasts the server status to clients.
package heartbeat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/stockguard/internal/server/events"
	"github.com/agentstation/stockguard/internal/server/status"
	ws "github.com/agentstation/stockguard/internal/server/websocket"
	"github.com/agentstation/stockguard/pkg/constants"
)

// Broadcaster delivers an event to all connected clients and returns once
// every send has completed.
type Broadcaster interface {
	Broadcast(ctx context.Context, e events.Event) []ws.SendResult
}

// Scheduler emits a status event every Interval.
type Scheduler struct {
	status      *status.Store
	broadcaster Broadcaster
	relay       events.Publisher
	interval    time.Duration
	logger      *zerolog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRelay hands every tick to p after the broadcast, for transports other
// than WebSocket.
func WithRelay(p events.Publisher) Option {
	return func(s *Scheduler) {
		if p != nil {
			s.relay = p
		}
	}
}

// New returns a scheduler. A non-positive interval selects
// constants.HeartbeatInterval.
func New(st *status.Store, b Broadcaster, interval time.Duration, logger *zerolog.Logger, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = constants.HeartbeatInterval
	}
	s := &Scheduler{
		status:      st,
		broadcaster: b,
		relay:       events.Discard,
		interval:    interval,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run ticks once immediately, then every interval until ctx is cancelled.
// The timer is re-armed only after a tick has finished, so ticks never
// overlap and missed ticks are not replayed. A tick in progress when ctx is
// cancelled runs to completion.
func (s *Scheduler) Run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info().Dur("interval", s.interval).Msg("Heartbeat started")

	s.Tick(context.WithoutCancel(ctx))

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Heartbeat stopped")
			return
		case <-timer.C:
			s.Tick(context.WithoutCancel(ctx))
			timer.Reset(s.interval)
		}
	}
}

// Tick refreshes the status timestamp, broadcasts the current status and
// then hands it to the relay.
func (s *Scheduler) Tick(ctx context.Context) {
	s.status.RefreshTimestamp()
	snap := s.status.Snapshot()
	tick := events.NewStatusTick(snap)

	results := s.broadcaster.Broadcast(ctx, tick)
	s.relay.Publish(tick)

	s.logger.Debug().
		Str("status", string(snap.State)).
		Int("connected_clients", snap.ConnectedClients).
		Int("delivered", len(results)).
		Msg("Heartbeat sent")
}
