package checkout

import (
	"tailorshop/internal/domain"
	"tailorshop/internal/fulfillment"

	"github.com/shopspring/decimal"
)

// ReasonDeferredUnpriced is shown when only staff-priced lines are present and no total is set.
const ReasonDeferredUnpriced = "Online payment for laundry orders will be available after admin sets the final amount. Please use Cash on Delivery for now."

// ReasonNothingPayable is shown when the payable amount is zero.
const ReasonNothingPayable = "Nothing to pay online. Please use Cash on Delivery."

// Eligibility describes whether online payment is offered and for how much.
// Amount is never the full mixed-cart total; it covers only Group.
type Eligibility struct {
	Allowed bool            `json:"allowed"`
	Amount  decimal.Decimal `json:"amount"`
	Group   domain.Group    `json:"group,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

// CanPayOnline decides online eligibility for a partition. laundryTotal is the
// staff-set total for the deferred lines, nil while unresolved.
func CanPayOnline(p fulfillment.Partition, laundryTotal *decimal.Decimal) Eligibility {
	if p.HasFixed() {
		fixed := FixedPriceTotal(p.Fixed)
		if fixed.IsPositive() {
			return Eligibility{Allowed: true, Amount: fixed, Group: domain.GroupReadymade}
		}
	}
	if p.HasDeferred() {
		if domain.Positive(laundryTotal) {
			return Eligibility{Allowed: true, Amount: domain.Round2(*laundryTotal), Group: domain.GroupLaundry}
		}
		return Eligibility{Reason: ReasonDeferredUnpriced}
	}
	return Eligibility{Reason: ReasonNothingPayable}
}
