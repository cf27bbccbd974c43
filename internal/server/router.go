package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agentstation/stockguard/internal/server/handlers"
	"github.com/agentstation/stockguard/internal/server/middleware"
	"github.com/agentstation/stockguard/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	h := handlers.New(handlers.Deps{
		Store:          s.store,
		Cache:          s.cache,
		Events:         s.broker,
		Hub:            s.wsHub,
		Status:         s.status,
		SSEBroadcaster: s.sseBroadcaster,
		Upgrader:       s.upgrader,
		Logger:         s.logger,
		Version:        s.app.Version(),
		StartTime:      s.startTime,
		BaseContext:    s.clientCtx,
	})

	r := chi.NewRouter()
	s.applyMiddleware(r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusMethodNotAllowed, response.Fail(
			"METHOD_NOT_ALLOWED",
			"Method not allowed",
			"Method "+r.Method+" is not supported for this endpoint",
		))
	})

	r.Get("/health", h.HandleHealth)
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Route(s.config.PathPrefix, h.RegisterRoutes)

	return r
}

// applyMiddleware installs the middleware chain, outermost first.
func (s *Server) applyMiddleware(r chi.Router) {
	cfg := s.config

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logger(s.logger))

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		}
		r.Use(middleware.CORS(corsConfig))
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		authConfig.HeaderName = cfg.AuthHeader
		if cfg.APIKey != "" {
			authConfig.APIKey = cfg.APIKey
		}
		authConfig.PublicPaths = []string{
			"/health",
			cfg.PathPrefix + "/health",
			cfg.PathPrefix + "/ready",
			cfg.PathPrefix + "/status",
			cfg.PathPrefix + "/ws",
		}
		r.Use(middleware.Auth(authConfig, s.logger))
	}

	if s.rateLimiter != nil {
		r.Use(middleware.RateLimit(s.rateLimiter))
	}
}
