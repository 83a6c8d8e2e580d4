package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CatalogKind selects one of the storefront collections.
type CatalogKind string

const (
	KindLaundry    CatalogKind = "laundry"
	KindUnstitched CatalogKind = "unstitched"
)

// ParseCatalogKind validates a collection name taken from a route or file.
func ParseCatalogKind(raw string) (CatalogKind, error) {
	switch CatalogKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindLaundry:
		return KindLaundry, nil
	case KindUnstitched:
		return KindUnstitched, nil
	}
	return "", NewValidationError("kind", fmt.Sprintf("unknown catalog %q", raw))
}

// CatalogItem is a laundry service or an unstitched suit offered for sale.
// Laundry items use Category for the laundry type and Unit for the pricing unit.
type CatalogItem struct {
	ID          string          `json:"id"`
	Kind        CatalogKind     `json:"kind"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	Images      []string        `json:"images,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate checks the fields required for the item's collection.
func (c CatalogItem) Validate() error {
	if blank(c.Name) {
		return NewValidationError("name", "name is required")
	}
	if c.Price.IsNegative() {
		return NewValidationError("price", "price must not be negative")
	}
	if c.Kind == KindLaundry && blank(c.Category) {
		return NewValidationError("category", "laundry items need a laundry type")
	}
	return nil
}

// Image returns the first image, if any.
func (c CatalogItem) Image() string {
	if len(c.Images) == 0 {
		return ""
	}
	return c.Images[0]
}
