// Package inventory holds the product and category records of stockguard and
// the stores that persist them. Stores are safe for concurrent use.
package inventory

import (
	"strings"

	"github.com/agentstation/stockguard/internal/utils/ptr"
	"github.com/agentstation/stockguard/pkg/constants"
	"github.com/agentstation/stockguard/pkg/errors"
)

// Product is a stocked item.
type Product struct {
	ID                int64     `json:"id" yaml:"id"`
	Name              string    `json:"name" yaml:"name"`
	Description       *string   `json:"description" yaml:"description,omitempty"`
	Price             float64   `json:"price" yaml:"price"`
	Quantity          int       `json:"quantity" yaml:"quantity"`
	LowStockThreshold int       `json:"low_stock_threshold" yaml:"low_stock_threshold"`
	CategoryID        *int64    `json:"category_id" yaml:"category_id,omitempty"`
	Category          *Category `json:"category,omitempty" yaml:"-"`
}

// IsLowStock reports whether the quantity is strictly below the threshold.
func (p Product) IsLowStock() bool {
	return p.Quantity < p.LowStockThreshold
}

// ProductCreate is the input for creating a product.
type ProductCreate struct {
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	Price             float64 `json:"price"`
	Quantity          int     `json:"quantity"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
	CategoryID        *int64  `json:"category_id"`
}

// Validate checks field constraints.
func (c ProductCreate) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	if err := validateDescription(c.Description); err != nil {
		return err
	}
	if c.Price < 0 {
		return errors.NewValidationError("price", c.Price, "must not be negative")
	}
	if c.Quantity < 0 {
		return errors.NewValidationError("quantity", c.Quantity, "must not be negative")
	}
	if c.LowStockThreshold != nil && *c.LowStockThreshold < 0 {
		return errors.NewValidationError("low_stock_threshold", *c.LowStockThreshold, "must not be negative")
	}
	return nil
}

// build returns the product described by c, without an ID.
func (c ProductCreate) build() Product {
	threshold := constants.DefaultLowStockThreshold
	if c.LowStockThreshold != nil {
		threshold = *c.LowStockThreshold
	}
	return Product{
		Name:              strings.TrimSpace(c.Name),
		Description:       ptr.Clone(c.Description),
		Price:             c.Price,
		Quantity:          c.Quantity,
		LowStockThreshold: threshold,
		CategoryID:        ptr.Clone(c.CategoryID),
	}
}

// ProductUpdate is a partial update. Only non-nil fields are applied.
type ProductUpdate struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	Price             *float64 `json:"price"`
	Quantity          *int     `json:"quantity"`
	LowStockThreshold *int     `json:"low_stock_threshold"`
	CategoryID        *int64   `json:"category_id"`
}

// Validate checks the constraints of the fields that are set.
func (u ProductUpdate) Validate() error {
	if u.Name != nil {
		if err := validateName(*u.Name); err != nil {
			return err
		}
	}
	if err := validateDescription(u.Description); err != nil {
		return err
	}
	if u.Price != nil && *u.Price < 0 {
		return errors.NewValidationError("price", *u.Price, "must not be negative")
	}
	if u.Quantity != nil && *u.Quantity < 0 {
		return errors.NewValidationError("quantity", *u.Quantity, "must not be negative")
	}
	if u.LowStockThreshold != nil && *u.LowStockThreshold < 0 {
		return errors.NewValidationError("low_stock_threshold", *u.LowStockThreshold, "must not be negative")
	}
	return nil
}

// apply writes the set fields onto p.
func (u ProductUpdate) apply(p *Product) {
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		p.Description = ptr.Clone(u.Description)
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Quantity != nil {
		p.Quantity = *u.Quantity
	}
	if u.LowStockThreshold != nil {
		p.LowStockThreshold = *u.LowStockThreshold
	}
	if u.CategoryID != nil {
		p.CategoryID = ptr.Clone(u.CategoryID)
	}
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewValidationError("name", name, "is required")
	}
	if len(name) > constants.MaxNameLength {
		return errors.NewValidationError("name", name, "is too long")
	}
	return nil
}

func validateDescription(desc *string) error {
	if desc != nil && len(*desc) > constants.MaxDescriptionLength {
		return errors.NewValidationError("description", nil, "is too long")
	}
	return nil
}
