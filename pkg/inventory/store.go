package inventory

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/agentstation/stockguard/pkg/constants"
)

// Store persists products and categories.
//
// Returned values are copies; mutating them does not affect the store.
// Products are returned with Category populated when CategoryID is set.
type Store interface {
	CreateProduct(in ProductCreate) (Product, error)
	GetProduct(id int64) (Product, error)
	ListProducts(f Filter) ([]Product, error)
	UpdateProduct(id int64, in ProductUpdate) (Product, error)
	DeleteProduct(id int64) (Product, error)

	CreateCategory(in CategoryCreate) (Category, error)
	GetCategory(id int64) (Category, error)
	ListCategories() ([]Category, error)
	UpdateCategory(id int64, in CategoryUpdate) (Category, error)
	DeleteCategory(id int64) (Category, error)
}

// Filter narrows and pages a product listing.
type Filter struct {
	Skip         int
	Limit        int
	NameContains string
	CategoryID   *int64
	LowStockOnly bool
}

// normalize clamps paging values to their allowed ranges.
func (f Filter) normalize() Filter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = constants.DefaultPageSize
	}
	if f.Limit > constants.MaxPageSize {
		f.Limit = constants.MaxPageSize
	}
	return f
}

// Apply filters and pages products, which must already be ordered by ID.
func (f Filter) Apply(products []Product) []Product {
	f = f.normalize()

	needle := ""
	fold := cases.Fold()
	if f.NameContains != "" {
		needle = fold.String(f.NameContains)
	}

	matched := make([]Product, 0, len(products))
	for _, p := range products {
		if needle != "" && !strings.Contains(fold.String(p.Name), needle) {
			continue
		}
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.LowStockOnly && !p.IsLowStock() {
			continue
		}
		matched = append(matched, p)
	}

	if f.Skip >= len(matched) {
		return []Product{}
	}
	end := f.Skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[f.Skip:end]
}
