package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stockguard/internal/server/status"
	"github.com/agentstation/stockguard/pkg/inventory"
)

func decode(t *testing.T, e Event) map[string]any {
	t.Helper()
	data, err := e.Encode()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestEventWireFormat(t *testing.T) {
	catID := int64(2)
	p := inventory.Product{
		ID:                7,
		Name:              "Widget",
		Price:             4.5,
		Quantity:          3,
		LowStockThreshold: 5,
		CategoryID:        &catID,
		Category:          &inventory.Category{ID: 2, Name: "Parts"},
	}

	t.Run("product_created", func(t *testing.T) {
		got := decode(t, NewProductCreated(p))
		assert.Equal(t, "product_created", got["type"])
		product := got["product"].(map[string]any)
		assert.Equal(t, "Widget", product["name"])
		assert.EqualValues(t, 5, product["low_stock_threshold"])
		assert.EqualValues(t, 2, product["category_id"])
		assert.Equal(t, "Parts", product["category"].(map[string]any)["name"])
		assert.NotContains(t, got, "product_id")
	})

	t.Run("product_deleted", func(t *testing.T) {
		got := decode(t, NewProductDeleted(p))
		assert.Equal(t, "product_deleted", got["type"])
		assert.EqualValues(t, 7, got["product_id"])
	})

	t.Run("category_deleted", func(t *testing.T) {
		got := decode(t, NewCategoryDeleted(inventory.Category{ID: 2, Name: "Parts"}))
		assert.Equal(t, "category_deleted", got["type"])
		assert.EqualValues(t, 2, got["category_id"])
		assert.Equal(t, "Parts", got["category"].(map[string]any)["name"])
	})

	t.Run("alert", func(t *testing.T) {
		got := decode(t, NewLowStockAlert(p))
		assert.Equal(t, "alert", got["type"])
		assert.Equal(t, "Widget", got["product"])
		assert.Equal(t, "Low stock for product Widget (quantity: 3, threshold: 5)", got["message"])
	})

	t.Run("status", func(t *testing.T) {
		ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		got := decode(t, NewStatusTick(status.Status{State: status.Online, Timestamp: ts, ConnectedClients: 3}))
		assert.Equal(t, "status", got["type"])
		assert.Equal(t, "Online", got["status"])
		assert.Equal(t, "2024-05-01T12:00:00Z", got["timestamp"])
		assert.EqualValues(t, 3, got["connected_clients"])
	})
}

func TestEventEncodeRejectsMissingPayload(t *testing.T) {
	for _, e := range []Event{
		{Type: ProductUpdated},
		{Type: CategoryCreated},
		{Type: StatusTick},
		{Type: LowStockAlert},
		{Type: "bogus"},
	} {
		_, err := e.Encode()
		assert.Error(t, err, string(e.Type))
	}
}

func TestEventKey(t *testing.T) {
	assert.Equal(t, "product.7", NewProductUpdated(inventory.Product{ID: 7}).Key())
	assert.Equal(t, "category.3", NewCategoryCreated(inventory.Category{ID: 3}).Key())
	assert.Equal(t, "status", NewStatusTick(status.Status{}).Key())
}
