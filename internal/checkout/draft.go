// Package checkout turns a cart into an order draft and decides whether it can be paid online.
package checkout

import (
	"html"
	"strings"

	"tailorshop/internal/domain"
	"tailorshop/internal/fulfillment"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

const maxNoteLength = 1000

var notePolicy = bluemonday.StrictPolicy()

// Draft is a transient order built between review and submission.
// DeferredTotal stays nil until staff assign a laundry admin total.
type Draft struct {
	Customer        domain.Customer       `json:"customer"`
	Items           []domain.CartItem     `json:"items"`
	Partition       fulfillment.Partition `json:"-"`
	FixedPriceTotal decimal.Decimal       `json:"fixedPriceTotal"`
	DeferredTotal   *decimal.Decimal      `json:"deferredTotal"`
	Note            string                `json:"note,omitempty"`
	PaymentMethod   domain.PaymentMethod  `json:"paymentMethod"`
	Eligibility     Eligibility           `json:"eligibility"`
}

// BuildDraft validates contact details and computes the fixed-price total.
func BuildDraft(items []domain.CartItem, customer domain.Customer, note string, method domain.PaymentMethod) (*Draft, error) {
	customer = customer.Normalize()
	if err := ValidateCustomer(customer); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "cart is empty")
	}
	if method == "" {
		method = domain.MethodCashOnDelivery
	}

	lines := make([]domain.CartItem, len(items))
	copy(lines, items)
	p := fulfillment.Classify(lines)
	eligibility := CanPayOnline(p, nil)
	if method == domain.MethodOnline && !eligibility.Allowed {
		return nil, domain.NewValidationError("paymentMethod", eligibility.Reason)
	}

	return &Draft{
		Customer:        customer,
		Items:           lines,
		Partition:       p,
		FixedPriceTotal: FixedPriceTotal(lines),
		Note:            SanitizeNote(note),
		PaymentMethod:   method,
		Eligibility:     eligibility,
	}, nil
}

// ValidateCustomer requires a name, address and phone.
func ValidateCustomer(c domain.Customer) error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return domain.NewValidationError("customer.name", "name is required")
	case strings.TrimSpace(c.Address) == "":
		return domain.NewValidationError("customer.address", "address is required")
	case strings.TrimSpace(c.Phone) == "":
		return domain.NewValidationError("customer.phone", "phone is required")
	}
	return nil
}

// FixedPriceTotal sums round2(price * qty) over fixed-price lines only.
func FixedPriceTotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if fulfillment.IsDeferred(it) {
			continue
		}
		total = total.Add(it.LineTotal())
	}
	return domain.Round2(total)
}

// SanitizeNote strips markup and clamps the note length. The result is plain
// text, so the entities the policy escapes are decoded again.
func SanitizeNote(note string) string {
	clean := strings.TrimSpace(html.UnescapeString(notePolicy.Sanitize(note)))
	if r := []rune(clean); len(r) > maxNoteLength {
		clean = string(r[:maxNoteLength])
	}
	return clean
}
