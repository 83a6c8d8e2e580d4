package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupState is the status and payment lifecycle of one fulfillment group.
type GroupState struct {
	Status           Status           `json:"status"`
	AdminTotal       *decimal.Decimal `json:"adminTotal,omitempty"`
	PaymentStatus    PaymentStatus    `json:"paymentStatus"`
	PaymentID        string           `json:"paymentId,omitempty"`
	GatewayOrderID   string           `json:"razorpayOrderId,omitempty"`
	Signature        string           `json:"-"`
	PaymentUpdatedAt *time.Time       `json:"paymentUpdatedAt,omitempty"`
}

func (g GroupState) IsPaid() bool {
	return g.PaymentStatus == PaymentPaid
}

// Locked reports whether totals and online payment are closed for the group.
func (g GroupState) Locked() bool {
	return g.Status == StatusDelivered
}

// Order is the normalized view of a submitted order.
// FixedPriceTotal covers fixed-price lines only; deferred lines are priced through Laundry.AdminTotal.
type Order struct {
	ID              string          `json:"id"`
	DisplayID       string          `json:"displayId,omitempty"`
	Customer        Customer        `json:"customer"`
	Items           []CartItem      `json:"items"`
	Note            string          `json:"note,omitempty"`
	FixedPriceTotal decimal.Decimal `json:"total"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Laundry         GroupState      `json:"laundry"`
	Readymade       GroupState      `json:"readymade"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// StateOf returns a pointer to the state of g so callers can mutate it in place.
func (o *Order) StateOf(g Group) (*GroupState, error) {
	switch g {
	case GroupLaundry:
		return &o.Laundry, nil
	case GroupReadymade:
		return &o.Readymade, nil
	}
	return nil, NewValidationError("group", "orders only have laundry and readymade groups")
}

// Payable returns the amount chargeable for g. A staff-set admin total takes
// precedence; readymade falls back to the fixed-price total. Nil means unresolved.
func (o Order) Payable(g Group) *decimal.Decimal {
	switch g {
	case GroupLaundry:
		return o.Laundry.AdminTotal
	case GroupReadymade:
		if o.Readymade.AdminTotal != nil {
			return o.Readymade.AdminTotal
		}
		total := o.FixedPriceTotal
		return &total
	}
	return nil
}
