package handlers

import (
	"net/http"

	"github.com/agentstation/stockguard/internal/server/events"
	"github.com/agentstation/stockguard/internal/server/filter"
	"github.com/agentstation/stockguard/internal/server/response"
	"github.com/agentstation/stockguard/pkg/inventory"
)

// HandleListProducts handles GET /api/v1/products.
func (h *Handlers) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	cacheKey := productsKey + r.URL.RawQuery
	if cached, found := h.cache.Get(cacheKey); found {
		response.OK(w, cached)
		return
	}

	f, err := filter.ParseProductFilter(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	products, err := h.store.ListProducts(f)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.cache.Set(cacheKey, products)
	response.OK(w, products)
}

// HandleGetProduct handles GET /api/v1/products/{id}.
func (h *Handlers) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	p, err := h.store.GetProduct(id)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, p)
}

// HandleCreateProduct handles POST /api/v1/products.
func (h *Handlers) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in inventory.ProductCreate
	if err := decodeJSON(r, &in); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	p, err := h.store.CreateProduct(in)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.cache.InvalidatePrefix(productsKey)
	h.publish(events.NewProductCreated(p))

	h.logger.Info().Int64("product_id", p.ID).Str("name", p.Name).Msg("Product created")
	response.Created(w, p)
}

// HandleUpdateProduct handles PUT and PATCH /api/v1/products/{id}. Only the
// fields present in the body are changed. When the updated product is below
// its threshold a low stock alert follows the update event.
func (h *Handlers) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	var in inventory.ProductUpdate
	if err := decodeJSON(r, &in); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	p, err := h.store.UpdateProduct(id, in)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.cache.InvalidatePrefix(productsKey)
	h.publish(events.NewProductUpdated(p))
	if p.IsLowStock() {
		h.publish(events.NewLowStockAlert(p))
		h.logger.Warn().
			Int64("product_id", p.ID).
			Int("quantity", p.Quantity).
			Int("threshold", p.LowStockThreshold).
			Msg("Low stock")
	}

	response.OK(w, p)
}

// HandleDeleteProduct handles DELETE /api/v1/products/{id} and returns the
// removed product.
func (h *Handlers) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	p, err := h.store.DeleteProduct(id)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.cache.InvalidatePrefix(productsKey)
	h.publish(events.NewProductDeleted(p))

	h.logger.Info().Int64("product_id", p.ID).Msg("Product deleted")
	response.OK(w, p)
}
