package domain

import "github.com/shopspring/decimal"

// LegacyLaundryCategory is the category older carts and orders used to mark laundry lines.
const LegacyLaundryCategory = "laundry"

// TagAlteration marks a line that stands for an alteration booking.
const TagAlteration = "alteration"

// CartItem is one line of a cart or a submitted order.
// FulfillmentTag holds the laundry type for staff-priced lines and is empty for fixed-price lines.
type CartItem struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	FulfillmentTag string          `json:"laundryType,omitempty"`
	Category       string          `json:"category,omitempty"`
	Size           string          `json:"size,omitempty"`
	Image          string          `json:"image,omitempty"`
}

// LineTotal is round2(unitPrice * quantity).
func (i CartItem) LineTotal() decimal.Decimal {
	return Round2(i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))))
}
