// Package events defines the domain events pushed to realtime clients and the
// broker that fans them out to every transport (WebSocket, SSE, NATS, MQTT).
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentstation/stockguard/internal/server/status"
	"github.com/agentstation/stockguard/pkg/inventory"
)

// EventType is the wire tag of an event.
type EventType string

// Event types.
const (
	ProductCreated  EventType = "product_created"
	ProductUpdated  EventType = "product_updated"
	ProductDeleted  EventType = "product_deleted"
	CategoryCreated EventType = "category_created"
	CategoryUpdated EventType = "category_updated"
	CategoryDeleted EventType = "category_deleted"
	LowStockAlert   EventType = "alert"
	StatusTick      EventType = "status"
)

// Event is one notification. Exactly one payload field is set, matching Type.
type Event struct {
	Type     EventType
	Product  *inventory.Product
	Category *inventory.Category
	Status   *status.Status
}

// NewProductCreated returns a product_created event.
func NewProductCreated(p inventory.Product) Event {
	return Event{Type: ProductCreated, Product: &p}
}

// NewProductUpdated returns a product_updated event.
func NewProductUpdated(p inventory.Product) Event {
	return Event{Type: ProductUpdated, Product: &p}
}

// NewProductDeleted returns a product_deleted event for the removed product.
func NewProductDeleted(p inventory.Product) Event {
	return Event{Type: ProductDeleted, Product: &p}
}

// NewCategoryCreated returns a category_created event.
func NewCategoryCreated(c inventory.Category) Event {
	return Event{Type: CategoryCreated, Category: &c}
}

// NewCategoryUpdated returns a category_updated event.
func NewCategoryUpdated(c inventory.Category) Event {
	return Event{Type: CategoryUpdated, Category: &c}
}

// NewCategoryDeleted returns a category_deleted event for the removed category.
func NewCategoryDeleted(c inventory.Category) Event {
	return Event{Type: CategoryDeleted, Category: &c}
}

// NewLowStockAlert returns an alert event for p.
func NewLowStockAlert(p inventory.Product) Event {
	return Event{Type: LowStockAlert, Product: &p}
}

// NewStatusTick returns a status event carrying s.
func NewStatusTick(s status.Status) Event {
	return Event{Type: StatusTick, Status: &s}
}

// AlertMessage is the human readable text of a low stock alert.
func AlertMessage(p inventory.Product) string {
	return fmt.Sprintf("Low stock for product %s (quantity: %d, threshold: %d)",
		p.Name, p.Quantity, p.LowStockThreshold)
}

// Key returns a routing key for brokers that partition by subject, such as
// "product.7" or "status".
func (e Event) Key() string {
	switch {
	case e.Product != nil:
		return fmt.Sprintf("product.%d", e.Product.ID)
	case e.Category != nil:
		return fmt.Sprintf("category.%d", e.Category.ID)
	default:
		return string(e.Type)
	}
}

type productPayload struct {
	Type      EventType          `json:"type"`
	ProductID *int64             `json:"product_id,omitempty"`
	Product   *inventory.Product `json:"product"`
}

type categoryPayload struct {
	Type       EventType           `json:"type"`
	CategoryID *int64              `json:"category_id,omitempty"`
	Category   *inventory.Category `json:"category"`
}

type alertPayload struct {
	Type      EventType `json:"type"`
	ProductID int64     `json:"product_id"`
	Product   string    `json:"product"`
	Quantity  int       `json:"quantity"`
	Threshold int       `json:"threshold"`
	Message   string    `json:"message"`
}

type statusPayload struct {
	Type             EventType    `json:"type"`
	Status           status.State `json:"status"`
	Timestamp        string       `json:"timestamp"`
	ConnectedClients int          `json:"connected_clients"`
}

// MarshalJSON encodes the event in its outbound wire form.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case ProductCreated, ProductUpdated, ProductDeleted:
		if e.Product == nil {
			return nil, fmt.Errorf("event %s: missing product", e.Type)
		}
		out := productPayload{Type: e.Type, Product: e.Product}
		if e.Type == ProductDeleted {
			out.ProductID = &e.Product.ID
		}
		return json.Marshal(out)

	case CategoryCreated, CategoryUpdated, CategoryDeleted:
		if e.Category == nil {
			return nil, fmt.Errorf("event %s: missing category", e.Type)
		}
		out := categoryPayload{Type: e.Type, Category: e.Category}
		if e.Type == CategoryDeleted {
			out.CategoryID = &e.Category.ID
		}
		return json.Marshal(out)

	case LowStockAlert:
		if e.Product == nil {
			return nil, fmt.Errorf("event %s: missing product", e.Type)
		}
		return json.Marshal(alertPayload{
			Type:      e.Type,
			ProductID: e.Product.ID,
			Product:   e.Product.Name,
			Quantity:  e.Product.Quantity,
			Threshold: e.Product.LowStockThreshold,
			Message:   AlertMessage(*e.Product),
		})

	case StatusTick:
		if e.Status == nil {
			return nil, fmt.Errorf("event %s: missing status", e.Type)
		}
		return json.Marshal(statusPayload{
			Type:             e.Type,
			Status:           e.Status.State,
			Timestamp:        e.Status.Timestamp.UTC().Format(time.RFC3339Nano),
			ConnectedClients: e.Status.ConnectedClients,
		})
	}
	return nil, fmt.Errorf("unknown event type %q", e.Type)
}

// Encode returns the wire form of the event.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
