package payment

import (
	"context"
	"time"

	"tailorshop/internal/domain"

	"github.com/shopspring/decimal"
)

// State is a step of one checkout attempt.
type State string

const (
	StateIdle                 State = "IDLE"
	StateAwaitingGatewayOrder State = "AWAITING_GATEWAY_ORDER"
	StateAwaitingUserPayment  State = "AWAITING_USER_PAYMENT"
	StateAwaitingVerification State = "AWAITING_VERIFICATION"
	StateSettled              State = "SETTLED"
	StateFailed               State = "FAILED"
)

// GatewayOrder is the gateway's handle for an amount to collect. Target is the
// group the order was raised for, nil for orders created without one.
type GatewayOrder struct {
	ID       string                `json:"id"`
	Amount   int64                 `json:"amount"`
	Currency string                `json:"currency"`
	Receipt  string                `json:"receipt,omitempty"`
	Target   *domain.PaymentTarget `json:"target,omitempty"`
}

// OrderRequest asks the gateway to collect Amount, given in rupees.
type OrderRequest struct {
	Amount  decimal.Decimal
	Receipt string
	Target  *domain.PaymentTarget
}

// Proof is what the gateway widget hands back after a completed payment.
type Proof struct {
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
}

// Gateway creates gateway orders.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (GatewayOrder, error)
}

// OrderLookup reads back a gateway order, including the target stored with it.
type OrderLookup interface {
	FetchOrder(ctx context.Context, id string) (GatewayOrder, error)
}

// Verifier checks a payment proof with the gateway.
type Verifier interface {
	Verify(ctx context.Context, proof Proof) error
}

// Payable is the current settlement picture of a target.
type Payable struct {
	Amount        *decimal.Decimal
	PaymentStatus domain.PaymentStatus
	Locked        bool
	Customer      domain.Customer
	Description   string
}

// Payables resolves what a target currently owes.
type Payables interface {
	Payable(ctx context.Context, target domain.PaymentTarget) (Payable, error)
}

// Settler records a verified payment against a target.
type Settler interface {
	MarkPaid(ctx context.Context, target domain.PaymentTarget, proof Proof) error
}

// Attempt is the in-memory record of one checkout attempt.
type Attempt struct {
	ID             string               `json:"id"`
	Target         domain.PaymentTarget `json:"target"`
	State          State                `json:"state"`
	Amount         decimal.Decimal      `json:"amount"`
	GatewayOrderID string               `json:"gatewayOrderId,omitempty"`
	PaymentID      string               `json:"paymentId,omitempty"`
	Superseded     bool                 `json:"superseded,omitempty"`
	Error          string               `json:"error,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// Prefill seeds the gateway widget with the customer's contact details.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// WidgetOptions is what the client passes to the hosted gateway widget.
type WidgetOptions struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	OrderID     string  `json:"order_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Prefill     Prefill `json:"prefill"`
}
