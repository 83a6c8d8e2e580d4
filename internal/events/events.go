// Package events carries order and alteration changes to live subscribers and brokers.
package events

import (
	"context"
	"errors"
	"time"

	"tailorshop/internal/domain"

	"github.com/shopspring/decimal"
)

// Event types.
const (
	OrderCreated        = "order.created"
	OrderStatusChanged  = "order.status_changed"
	OrderTotalSet       = "order.total_set"
	OrderPaymentChanged = "order.payment_changed"
	AlterationCreated   = "alteration.created"
	AlterationChanged   = "alteration.changed"
	PaymentSettled      = "payment.settled"
	PaymentAutoSettled  = "payment.auto_settled"
)

// Event describes one change to an order group or alteration.
type Event struct {
	Type          string               `json:"type"`
	Kind          domain.TargetKind    `json:"kind"`
	EntityID      string               `json:"id"`
	Group         domain.Group         `json:"group,omitempty"`
	Status        domain.Status        `json:"status,omitempty"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus,omitempty"`
	PaymentID     string               `json:"paymentId,omitempty"`
	Amount        *decimal.Decimal     `json:"amount,omitempty"`
	CustomerEmail string               `json:"-"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
