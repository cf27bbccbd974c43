// Package handlers provides the HTTP handlers of the stockguard API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/stockguard/internal/server/cache"
	"github.com/agentstation/stockguard/internal/server/events"
	"github.com/agentstation/stockguard/internal/server/sse"
	"github.com/agentstation/stockguard/internal/server/status"
	ws "github.com/agentstation/stockguard/internal/server/websocket"
	"github.com/agentstation/stockguard/pkg/errors"
	"github.com/agentstation/stockguard/pkg/inventory"
)

// Cache key prefixes.
const (
	productsKey   = "products:"
	categoriesKey = "categories:"
)

// Deps are the collaborators of Handlers.
type Deps struct {
	Store          inventory.Store
	Cache          *cache.Cache
	Events         events.Publisher
	Hub            *ws.Hub
	Status         *status.Store
	SSEBroadcaster *sse.Broadcaster
	Upgrader       websocket.Upgrader
	Logger         *zerolog.Logger
	Version        string
	StartTime      time.Time

	// BaseContext bounds the lifetime of WebSocket clients.
	BaseContext context.Context
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	store          inventory.Store
	cache          *cache.Cache
	events         events.Publisher
	wsHub          *ws.Hub
	status         *status.Store
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	version        string
	startTime      time.Time
	baseCtx        context.Context
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	if d.Events == nil {
		d.Events = events.Discard
	}
	if d.BaseContext == nil {
		d.BaseContext = context.Background()
	}
	if d.StartTime.IsZero() {
		d.StartTime = time.Now()
	}
	return &Handlers{
		store:          d.Store,
		cache:          d.Cache,
		events:         d.Events,
		wsHub:          d.Hub,
		status:         d.Status,
		sseBroadcaster: d.SSEBroadcaster,
		upgrader:       d.Upgrader,
		logger:         d.Logger,
		version:        d.Version,
		startTime:      d.StartTime,
		baseCtx:        d.BaseContext,
	}
}

// RegisterRoutes mounts every API route on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)
	r.Get("/status", h.HandleStatus)
	r.Get("/stats", h.HandleStats)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.HandleListProducts)
		r.Post("/", h.HandleCreateProduct)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetProduct)
			r.Put("/", h.HandleUpdateProduct)
			r.Patch("/", h.HandleUpdateProduct)
			r.Delete("/", h.HandleDeleteProduct)
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.HandleListCategories)
		r.Post("/", h.HandleCreateCategory)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetCategory)
			r.Put("/", h.HandleUpdateCategory)
			r.Patch("/", h.HandleUpdateCategory)
			r.Delete("/", h.HandleDeleteCategory)
		})
	})

	r.Get("/ws", h.HandleWebSocket)
	r.Get("/updates/stream", h.HandleSSE)
}

// publish hands an event to the broker. It never fails the request.
func (h *Handlers) publish(e events.Event) {
	h.events.Publish(e)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewValidationError("body", nil, "invalid JSON: "+err.Error())
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.NewValidationError("id", raw, "must be a positive integer")
	}
	return id, nil
}
