package inventory

import (
	"strings"

	"github.com/agentstation/stockguard/internal/utils/ptr"
)

// Category groups products.
type Category struct {
	ID          int64   `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description" yaml:"description,omitempty"`
}

func (c Category) clone() Category {
	c.Description = ptr.Clone(c.Description)
	return c
}

// CategoryCreate is the input for creating a category.
type CategoryCreate struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Validate checks field constraints.
func (c CategoryCreate) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	return validateDescription(c.Description)
}

// CategoryUpdate is a partial update. Only non-nil fields are applied.
type CategoryUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Validate checks the constraints of the fields that are set.
func (u CategoryUpdate) Validate() error {
	if u.Name != nil {
		if err := validateName(*u.Name); err != nil {
			return err
		}
	}
	return validateDescription(u.Description)
}

func (u CategoryUpdate) apply(c *Category) {
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		c.Description = ptr.Clone(u.Description)
	}
}
