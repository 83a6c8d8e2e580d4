// Package reconcile applies staff and gateway updates to the per-group status,
// total and payment of orders and alterations.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tailorshop/internal/domain"
	"tailorshop/internal/events"
	"tailorshop/internal/fulfillment"
	"tailorshop/internal/payment"
	altrepo "tailorshop/internal/repository/alteration"
	orderrepo "tailorshop/internal/repository/order"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrUnpricedDelivery is returned when a group would be auto-settled on
// delivery without a known positive total.
var ErrUnpricedDelivery = fmt.Errorf("%w: set the final amount before marking this delivered", domain.ErrConflict)

var (
	// ErrForeignGatewayOrder is returned when a proof pays a gateway order
	// raised for another group, or for no group at all.
	ErrForeignGatewayOrder = errors.New("gateway order was not raised for this payment")
	// ErrAmountMismatch is returned when the captured amount differs from what the group owes.
	ErrAmountMismatch = errors.New("paid amount does not match the amount due")
)

// ProofChecker verifies callback signatures and reads back the gateway order
// a proof refers to.
type ProofChecker interface {
	payment.Verifier
	payment.OrderLookup
}

// ManualPaymentPrefix marks payment ids synthesized when staff deliver an unpaid group.
const ManualPaymentPrefix = "admin_manual_"

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, id string, fn orderrepo.Mutation) (*domain.Order, error)
}

type alterationRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Alteration, error)
	Update(ctx context.Context, id string, fn altrepo.Mutation) (*domain.Alteration, error)
}

// PaymentInput is a staff or client supplied payment update.
type PaymentInput struct {
	PaymentStatus  string `json:"paymentStatus"`
	PaymentID      string `json:"paymentId"`
	GatewayOrderID string `json:"razorpayOrderId"`
	Signature      string `json:"razorpaySignature"`
}

// Service implements payment.Payables and payment.Settler on top of the repositories.
type Service struct {
	orders      orderRepo
	alterations alterationRepo
	gateway     ProofChecker
	publisher   events.Publisher
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

func New(orders orderRepo, alterations alterationRepo, gateway ProofChecker, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:      orders,
		alterations: alterations,
		gateway:     gateway,
		publisher:   publisher,
		logger:      logger.Named("reconcile"),
		now:         time.Now,
		newID:       func() string { return ulid.Make().String() },
	}
}

// SetAdminTotal records the staff-assigned total for an order group.
func (s *Service) SetAdminTotal(ctx context.Context, orderID string, g domain.Group, amount decimal.Decimal) (*domain.Order, error) {
	if amount.IsNegative() {
		return nil, domain.NewValidationError("adminTotal", "total must not be negative")
	}
	total := domain.Round2(amount)
	o, err := s.orders.Update(ctx, orderID, func(o *domain.Order) error {
		st, err := groupOf(o, g)
		if err != nil {
			return err
		}
		if st.Locked() {
			return payment.ErrGroupLocked
		}
		st.AdminTotal = &total
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishOrder(ctx, events.OrderTotalSet, o, g)
	return o, nil
}

// SetStatus changes an order group's status. Delivering an unpaid group settles it.
func (s *Service) SetStatus(ctx context.Context, orderID string, g domain.Group, raw string) (*domain.Order, error) {
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	autoSettled := false
	o, err := s.orders.Update(ctx, orderID, func(o *domain.Order) error {
		st, err := groupOf(o, g)
		if err != nil {
			return err
		}
		autoSettled, err = s.applyStatus(st, status, o.Payable(g))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publishOrder(ctx, events.OrderStatusChanged, o, g)
	if autoSettled {
		s.logger.Info("group settled on delivery", zap.String("order_id", o.ID), zap.String("group", string(g)))
		s.publishOrder(ctx, events.PaymentAutoSettled, o, g)
	}
	return o, nil
}

// RecordPayment applies a payment update to an order group. Marking a group
// Paid needs a verified proof for a gateway order raised for this group and
// for the amount it owes.
func (s *Service) RecordPayment(ctx context.Context, orderID string, g domain.Group, in PaymentInput) (*domain.Order, error) {
	target := domain.PaymentTarget{Kind: domain.TargetOrder, EntityID: orderID, Group: g}
	status, c, err := s.checkPayment(ctx, target, in)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.Update(ctx, orderID, func(o *domain.Order) error {
		st, err := groupOf(o, g)
		if err != nil {
			return err
		}
		return s.applyPayment(st, status, o.Payable(g), c)
	})
	if err != nil {
		return nil, err
	}
	s.publishOrder(ctx, events.OrderPaymentChanged, o, g)
	return o, nil
}

func (s *Service) SetAlterationAdminTotal(ctx context.Context, id string, amount decimal.Decimal) (*domain.Alteration, error) {
	if amount.IsNegative() {
		return nil, domain.NewValidationError("adminTotal", "total must not be negative")
	}
	total := domain.Round2(amount)
	a, err := s.alterations.Update(ctx, id, func(a *domain.Alteration) error {
		if a.State.Locked() {
			return payment.ErrGroupLocked
		}
		a.State.AdminTotal = &total
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishAlteration(ctx, events.AlterationChanged, a)
	return a, nil
}

func (s *Service) SetAlterationStatus(ctx context.Context, id, raw string) (*domain.Alteration, error) {
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	autoSettled := false
	a, err := s.alterations.Update(ctx, id, func(a *domain.Alteration) error {
		settled, err := s.applyStatus(&a.State, status, a.Payable())
		autoSettled = settled
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publishAlteration(ctx, events.AlterationChanged, a)
	if autoSettled {
		s.publishAlteration(ctx, events.PaymentAutoSettled, a)
	}
	return a, nil
}

func (s *Service) RecordAlterationPayment(ctx context.Context, id string, in PaymentInput) (*domain.Alteration, error) {
	target := domain.PaymentTarget{Kind: domain.TargetAlteration, EntityID: id, Group: domain.GroupAlteration}
	status, c, err := s.checkPayment(ctx, target, in)
	if err != nil {
		return nil, err
	}
	a, err := s.alterations.Update(ctx, id, func(a *domain.Alteration) error {
		return s.applyPayment(&a.State, status, a.Payable(), c)
	})
	if err != nil {
		return nil, err
	}
	s.publishAlteration(ctx, events.AlterationChanged, a)
	return a, nil
}

// Payable reports what target owes right now.
func (s *Service) Payable(ctx context.Context, target domain.PaymentTarget) (payment.Payable, error) {
	switch target.Kind {
	case domain.TargetOrder:
		o, err := s.orders.GetByID(ctx, target.EntityID)
		if err != nil {
			return payment.Payable{}, err
		}
		st, err := groupOf(o, target.Group)
		if err != nil {
			return payment.Payable{}, err
		}
		return payment.Payable{
			Amount:        o.Payable(target.Group),
			PaymentStatus: st.PaymentStatus,
			Locked:        st.Locked(),
			Customer:      o.Customer,
			Description:   describe(target.Group),
		}, nil
	case domain.TargetAlteration:
		a, err := s.alterations.GetByID(ctx, target.EntityID)
		if err != nil {
			return payment.Payable{}, err
		}
		return payment.Payable{
			Amount:        a.Payable(),
			PaymentStatus: a.State.PaymentStatus,
			Locked:        a.State.Locked(),
			Customer:      a.Customer,
			Description:   describe(domain.GroupAlteration),
		}, nil
	}
	return payment.Payable{}, target.Validate()
}

// MarkPaid records a verified gateway payment. Replaying the same payment id
// is a no-op; a second payment id for a settled group is a DuplicatePaymentError.
func (s *Service) MarkPaid(ctx context.Context, target domain.PaymentTarget, proof payment.Proof) error {
	if err := target.Validate(); err != nil {
		return err
	}
	c, err := s.verify(ctx, target, proof)
	if err != nil {
		return err
	}
	switch target.Kind {
	case domain.TargetOrder:
		o, err := s.orders.Update(ctx, target.EntityID, func(o *domain.Order) error {
			st, err := groupOf(o, target.Group)
			if err != nil {
				return err
			}
			return s.capture(st, o.Payable(target.Group), c)
		})
		if err != nil {
			return err
		}
		s.publishOrder(ctx, events.PaymentSettled, o, target.Group)
		return nil
	case domain.TargetAlteration:
		a, err := s.alterations.Update(ctx, target.EntityID, func(a *domain.Alteration) error {
			return s.capture(&a.State, a.Payable(), c)
		})
		if err != nil {
			return err
		}
		s.publishAlteration(ctx, events.PaymentSettled, a)
		return nil
	}
	return target.Validate()
}

// applyStatus sets status on st and reports whether delivery auto-settled it.
func (s *Service) applyStatus(st *domain.GroupState, status domain.Status, payable *decimal.Decimal) (bool, error) {
	if status != domain.StatusDelivered || st.IsPaid() {
		st.Status = status
		return false, nil
	}
	if !domain.Positive(payable) {
		return false, ErrUnpricedDelivery
	}
	now := s.now()
	st.Status = status
	st.PaymentStatus = domain.PaymentPaid
	st.PaymentID = ManualPaymentPrefix + s.newID()
	st.GatewayOrderID = ""
	st.Signature = ""
	st.PaymentUpdatedAt = &now
	return true, nil
}

func (s *Service) applyPayment(st *domain.GroupState, status domain.PaymentStatus, payable *decimal.Decimal, c verified) error {
	if status == domain.PaymentPaid {
		return s.capture(st, payable, c)
	}
	if st.Locked() {
		return payment.ErrGroupLocked
	}
	now := s.now()
	st.PaymentStatus = status
	st.PaymentUpdatedAt = &now
	return nil
}

// capture settles st with a verified payment. It runs with the row locked, so
// the amount is checked against what the group owes at commit time.
func (s *Service) capture(st *domain.GroupState, payable *decimal.Decimal, c verified) error {
	if st.IsPaid() {
		if st.PaymentID == c.proof.PaymentID {
			return nil
		}
		return &payment.DuplicatePaymentError{PaymentID: c.proof.PaymentID, SettledID: st.PaymentID}
	}
	if st.Locked() {
		return payment.ErrGroupLocked
	}
	if !domain.Positive(payable) || domain.MinorUnits(*payable) != c.order.Amount {
		due := "unset"
		if payable != nil {
			due = payable.StringFixed(2)
		}
		s.logger.Warn("captured amount differs from amount due",
			zap.String("payment_id", c.proof.PaymentID),
			zap.Int64("captured_minor", c.order.Amount),
			zap.String("due", due),
		)
		return &payment.VerificationError{PaymentID: c.proof.PaymentID, Err: ErrAmountMismatch}
	}
	s.settle(st, c.proof)
	return nil
}

func (s *Service) settle(st *domain.GroupState, proof payment.Proof) {
	now := s.now()
	st.PaymentStatus = domain.PaymentPaid
	st.PaymentID = proof.PaymentID
	st.GatewayOrderID = proof.GatewayOrderID
	st.Signature = proof.Signature
	st.PaymentUpdatedAt = &now
}

// verified is a proof whose signature checked out, with the gateway order it paid.
type verified struct {
	proof payment.Proof
	order payment.GatewayOrder
}

// checkPayment parses the requested status and, for Paid, verifies the proof
// before any row is locked.
func (s *Service) checkPayment(ctx context.Context, target domain.PaymentTarget, in PaymentInput) (domain.PaymentStatus, verified, error) {
	status, err := domain.ParsePaymentStatus(in.PaymentStatus)
	if err != nil {
		return "", verified{}, err
	}
	if status != domain.PaymentPaid {
		return status, verified{}, nil
	}
	proof := payment.Proof{
		GatewayOrderID: strings.TrimSpace(in.GatewayOrderID),
		PaymentID:      strings.TrimSpace(in.PaymentID),
		Signature:      strings.TrimSpace(in.Signature),
	}
	if proof.GatewayOrderID == "" || proof.PaymentID == "" || proof.Signature == "" {
		return "", verified{}, domain.NewValidationError("paymentId", "paymentId, razorpayOrderId and razorpaySignature are required to mark a payment Paid")
	}
	c, err := s.verify(ctx, target, proof)
	if err != nil {
		return "", verified{}, err
	}
	return status, c, nil
}

// verify checks the proof signature and that its gateway order was raised for target.
func (s *Service) verify(ctx context.Context, target domain.PaymentTarget, proof payment.Proof) (verified, error) {
	if s.gateway == nil {
		return verified{}, &payment.VerificationError{PaymentID: proof.PaymentID, Err: errors.New("no verifier configured")}
	}
	if err := s.gateway.Verify(ctx, proof); err != nil {
		s.logger.Warn("payment proof rejected", zap.String("payment_id", proof.PaymentID), zap.Error(err))
		return verified{}, &payment.VerificationError{PaymentID: proof.PaymentID, Err: err}
	}
	order, err := s.gateway.FetchOrder(ctx, proof.GatewayOrderID)
	if err != nil {
		var nerr *payment.NetworkError
		if errors.As(err, &nerr) {
			return verified{}, err
		}
		return verified{}, &payment.VerificationError{PaymentID: proof.PaymentID, Err: err}
	}
	if order.Target == nil || *order.Target != target {
		s.logger.Warn("proof replayed against another target",
			zap.String("payment_id", proof.PaymentID),
			zap.String("gateway_order", proof.GatewayOrderID),
			zap.String("target", target.Key()),
		)
		return verified{}, &payment.VerificationError{PaymentID: proof.PaymentID, Err: ErrForeignGatewayOrder}
	}
	return verified{proof: proof, order: order}, nil
}

// groupOf returns the state of g, which must be a group the order actually has.
func groupOf(o *domain.Order, g domain.Group) (*domain.GroupState, error) {
	st, err := o.StateOf(g)
	if err != nil {
		return nil, err
	}
	if !fulfillment.Classify(o.Items).Has(g) {
		return nil, domain.NewValidationError("group", fmt.Sprintf("order has no %s items", g))
	}
	return st, nil
}

func describe(g domain.Group) string {
	switch g {
	case domain.GroupLaundry:
		return "Laundry order"
	case domain.GroupAlteration:
		return "Alteration booking"
	}
	return "Readymade order"
}

func (s *Service) publishOrder(ctx context.Context, typ string, o *domain.Order, g domain.Group) {
	st, err := o.StateOf(g)
	if err != nil {
		return
	}
	s.publish(ctx, events.Event{
		Type:          typ,
		Kind:          domain.TargetOrder,
		EntityID:      o.ID,
		Group:         g,
		Status:        st.Status,
		PaymentStatus: st.PaymentStatus,
		PaymentID:     st.PaymentID,
		Amount:        o.Payable(g),
		CustomerEmail: o.Customer.Email,
	})
}

func (s *Service) publishAlteration(ctx context.Context, typ string, a *domain.Alteration) {
	s.publish(ctx, events.Event{
		Type:          typ,
		Kind:          domain.TargetAlteration,
		EntityID:      a.ID,
		Group:         domain.GroupAlteration,
		Status:        a.State.Status,
		PaymentStatus: a.State.PaymentStatus,
		PaymentID:     a.State.PaymentID,
		Amount:        a.Payable(),
		CustomerEmail: a.Customer.Email,
	})
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publish event", zap.String("type", e.Type), zap.String("id", e.EntityID), zap.Error(err))
	}
}
