// Package filter parses list query parameters into inventory filters.
package filter

import (
	"net/http"
	"strconv"

	"github.com/agentstation/stockguard/pkg/constants"
	"github.com/agentstation/stockguard/pkg/errors"
	"github.com/agentstation/stockguard/pkg/inventory"
)

// ParseProductFilter reads skip, limit, name_contains, category_id and
// low_stock from the query string.
func ParseProductFilter(r *http.Request) (inventory.Filter, error) {
	q := r.URL.Query()

	f := inventory.Filter{
		NameContains: q.Get("name_contains"),
	}

	var err error
	if f.Skip, err = parseInt(q.Get("skip"), "skip", 0); err != nil {
		return f, err
	}
	if f.Limit, err = parseInt(q.Get("limit"), "limit", constants.DefaultPageSize); err != nil {
		return f, err
	}
	if f.Skip < 0 {
		return f, errors.NewValidationError("skip", f.Skip, "must not be negative")
	}
	if f.Limit < 1 || f.Limit > constants.MaxPageSize {
		return f, errors.NewValidationError("limit", f.Limit, "must be between 1 and "+strconv.Itoa(constants.MaxPageSize))
	}

	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, errors.NewValidationError("category_id", raw, "must be an integer")
		}
		f.CategoryID = &id
	}

	if raw := q.Get("low_stock"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errors.NewValidationError("low_stock", raw, "must be a boolean")
		}
		f.LowStockOnly = b
	}

	return f, nil
}

func parseInt(raw, field string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(field, raw, "must be an integer")
	}
	return n, nil
}
