package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alteration is a tailoring booking. It is always staff-priced and has a single group.
type Alteration struct {
	ID        string     `json:"id"`
	DisplayID string     `json:"displayId,omitempty"`
	Customer  Customer   `json:"customer"`
	Note      string     `json:"note,omitempty"`
	Quantity  int        `json:"quantity"`
	ShopNo    string     `json:"shopNo,omitempty"`
	State     GroupState `json:"state"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Payable is the staff-set total, nil until assigned.
func (a Alteration) Payable() *decimal.Decimal {
	return a.State.AdminTotal
}

// TargetKind distinguishes the entities a payment can settle.
type TargetKind string

const (
	TargetOrder      TargetKind = "order"
	TargetAlteration TargetKind = "alteration"
)

// PaymentTarget names the group a payment applies to.
type PaymentTarget struct {
	Kind     TargetKind `json:"kind"`
	EntityID string     `json:"id"`
	Group    Group      `json:"group"`
}

// Key identifies the target for in-flight bookkeeping.
func (t PaymentTarget) Key() string {
	return string(t.Kind) + ":" + t.EntityID + ":" + string(t.Group)
}

// Validate checks that the kind and group belong together.
func (t PaymentTarget) Validate() error {
	if blank(t.EntityID) {
		return NewValidationError("id", "id is required")
	}
	switch t.Kind {
	case TargetOrder:
		if t.Group != GroupLaundry && t.Group != GroupReadymade {
			return NewValidationError("group", "order payments target the laundry or readymade group")
		}
	case TargetAlteration:
		if t.Group != GroupAlteration {
			return NewValidationError("group", "alteration payments target the alteration group")
		}
	default:
		return NewValidationError("kind", "kind must be order or alteration")
	}
	return nil
}
