// Package server wires the stockguard HTTP API and its realtime layer.
//
// A Server owns the status store, the WebSocket registry and hub, the event
// broker with its transport subscribers, the SSE broadcaster and the
// heartbeat scheduler:
//
//	srv, err := server.New(app, server.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	srv.Start()
//	defer srv.Shutdown(ctx)
//	http.ListenAndServe(":8000", srv.Handler())
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/stockguard/cmd/application"
	"github.com/agentstation/stockguard/internal/server/cache"
	"github.com/agentstation/stockguard/internal/server/events"
	"github.com/agentstation/stockguard/internal/server/events/adapters"
	"github.com/agentstation/stockguard/internal/server/heartbeat"
	"github.com/agentstation/stockguard/internal/server/middleware"
	"github.com/agentstation/stockguard/internal/server/sse"
	"github.com/agentstation/stockguard/internal/server/status"
	ws "github.com/agentstation/stockguard/internal/server/websocket"
	"github.com/agentstation/stockguard/pkg/inventory"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app            application.Application
	store          inventory.Store
	status         *status.Store
	wsHub          *ws.Hub
	broker         *events.Broker
	sseBroadcaster *sse.Broadcaster
	heartbeat      *heartbeat.Scheduler
	rateLimiter    *middleware.RateLimiter
	cache          *cache.Cache
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	clientCtx      context.Context
	clientCancel   context.CancelFunc
	wg             sync.WaitGroup
	startTime      time.Time
	shutdownOnce   sync.Once
}

// New creates a server. External event buses named in cfg are connected
// here; a connection failure is returned.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()

	defaults := DefaultConfig()
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if cfg.WriteWait == 0 {
		cfg.WriteWait = defaults.WriteWait
	}

	store, err := app.Store()
	if err != nil {
		return nil, err
	}

	st := status.NewStore()
	wsHub := ws.NewHub(ws.NewRegistry(st, logger), logger, ws.WithWriteWait(cfg.WriteWait))
	sseBroadcaster := sse.NewBroadcaster(logger)

	broker := events.NewBroker(logger)
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))

	if cfg.NATSURL != "" {
		sub, err := adapters.NewNATSSubscriber(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, err
		}
		broker.Subscribe(sub)
		logger.Info().Str("url", cfg.NATSURL).Msg("NATS event forwarding enabled")
	}
	if cfg.MQTTBroker != "" {
		sub, err := adapters.NewMQTTSubscriber(cfg.MQTTBroker, cfg.MQTTTopic, "stockguard-"+app.Version())
		if err != nil {
			return nil, err
		}
		broker.Subscribe(sub)
		logger.Info().Str("broker", cfg.MQTTBroker).Msg("MQTT event forwarding enabled")
	}

	// ticks reach the hub directly; the broker carries them to the other transports
	hb := heartbeat.New(st, wsHub, cfg.HeartbeatInterval, logger,
		heartbeat.WithRelay(events.PublisherFunc(func(e events.Event) {
			broker.PublishExcept(e, adapters.WebSocketName)
		})))

	ctx, cancel := context.WithCancel(context.Background())
	// clients outlive the background services so they receive the final status
	clientCtx, clientCancel := context.WithCancel(context.Background())

	s := &Server{
		app:            app,
		store:          store,
		status:         st,
		wsHub:          wsHub,
		broker:         broker,
		sseBroadcaster: sseBroadcaster,
		heartbeat:      hb,
		cache:          cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // the feed is public
			},
		},
		logger:       logger,
		config:       cfg,
		ctx:          ctx,
		cancel:       cancel,
		clientCtx:    clientCtx,
		clientCancel: clientCancel,
		startTime:    time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	logger.Debug().Msg("Server instance created")
	return s, nil
}

// Start runs the background services: event broker, SSE keep-alive,
// heartbeat and rate limiter eviction.
func (s *Server) Start() {
	s.goRun(s.broker.Run)
	s.goRun(s.sseBroadcaster.Run)
	s.goRun(s.heartbeat.Run)
	if s.rateLimiter != nil {
		s.goRun(s.rateLimiter.Run)
	}
	s.logger.Debug().Msg("All background services started")
}

func (s *Server) goRun(fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown marks the server Offline, queues the final status for the
// non-WebSocket subscribers, stops the background services after they
// deliver queued events, sends the final status to every WebSocket client
// and closes all connections. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info().Msg("Shutting down realtime services")

		s.status.SetState(status.Offline)
		final := events.NewStatusTick(s.status.Snapshot())
		s.broker.PublishExcept(final, adapters.WebSocketName)
		s.cancel()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
			s.logger.Warn().Msg("Background services shutdown timed out")
		}

		s.wsHub.Broadcast(ctx, final)
		s.wsHub.Registry().CloseAll()
		s.clientCancel()
		s.sseBroadcaster.Close()
	})
	return err
}

// Status returns the server status store.
func (s *Server) Status() *status.Store {
	return s.status
}

// WSHub returns the WebSocket hub.
func (s *Server) WSHub() *ws.Hub {
	return s.wsHub
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
