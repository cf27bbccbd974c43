package handlers

import (
	"net/http"

	"github.com/agentstation/stockguard/internal/server/events"
	"github.com/agentstation/stockguard/internal/server/response"
	"github.com/agentstation/stockguard/pkg/inventory"
)

// HandleListCategories handles GET /api/v1/categories.
func (h *Handlers) HandleListCategories(w http.ResponseWriter, _ *http.Request) {
	const cacheKey = categoriesKey + "all"
	if cached, found := h.cache.Get(cacheKey); found {
		response.OK(w, cached)
		return
	}

	cats, err := h.store.ListCategories()
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.cache.Set(cacheKey, cats)
	response.OK(w, cats)
}

// HandleGetCategory handles GET /api/v1/categories/{id}.
func (h *Handlers) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	c, err := h.store.GetCategory(id)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, c)
}

// HandleCreateCategory handles POST /api/v1/categories.
func (h *Handlers) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in inventory.CategoryCreate
	if err := decodeJSON(r, &in); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	c, err := h.store.CreateCategory(in)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.cache.InvalidatePrefix(categoriesKey)
	h.publish(events.NewCategoryCreated(c))
	response.Created(w, c)
}

// HandleUpdateCategory handles PUT and PATCH /api/v1/categories/{id}.
func (h *Handlers) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	var in inventory.CategoryUpdate
	if err := decodeJSON(r, &in); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	c, err := h.store.UpdateCategory(id, in)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	// products embed their category
	h.cache.InvalidatePrefix(categoriesKey)
	h.cache.InvalidatePrefix(productsKey)
	h.publish(events.NewCategoryUpdated(c))
	response.OK(w, c)
}

// HandleDeleteCategory handles DELETE /api/v1/categories/{id}. Products in
// the category are detached, not deleted.
func (h *Handlers) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	c, err := h.store.DeleteCategory(id)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.cache.InvalidatePrefix(categoriesKey)
	h.cache.InvalidatePrefix(productsKey)
	h.publish(events.NewCategoryDeleted(c))
	response.OK(w, c)
}
