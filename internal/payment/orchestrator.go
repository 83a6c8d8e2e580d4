// Package payment drives one online checkout attempt from gateway order to settlement.
package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"tailorshop/internal/domain"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Options configures widget rendering and stale attempt handling.
type Options struct {
	KeyID    string
	ShopName string
	// StaleAfter releases the in-flight guard of an attempt left waiting for the
	// user longer than this. Zero keeps the guard until dismissal.
	StaleAfter time.Duration
}

// keepSuperseded bounds how long an attempt replaced by a newer one for the
// same target can still be completed.
const keepSuperseded = 24 * time.Hour

// Orchestrator owns the attempt table. Steps of one attempt run strictly in
// sequence; a per-target guard rejects a second concurrent attempt.
type Orchestrator struct {
	gateway  Gateway
	verifier Verifier
	payables Payables
	settler  Settler
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	mu       sync.Mutex
	attempts map[string]*Attempt
	inFlight map[string]string
}

// New builds an Orchestrator.
func New(gateway Gateway, verifier Verifier, payables Payables, settler Settler, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		gateway:  gateway,
		verifier: verifier,
		payables: payables,
		settler:  settler,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
		attempts: make(map[string]*Attempt),
		inFlight: make(map[string]string),
	}
}

// Begin opens an attempt for target and creates the gateway order for the
// target's payable amount.
func (o *Orchestrator) Begin(ctx context.Context, target domain.PaymentTarget) (Attempt, WidgetOptions, error) {
	if err := target.Validate(); err != nil {
		return Attempt{}, WidgetOptions{}, err
	}
	p, err := o.payables.Payable(ctx, target)
	if err != nil {
		return Attempt{}, WidgetOptions{}, err
	}
	switch {
	case p.Locked:
		return Attempt{}, WidgetOptions{}, ErrGroupLocked
	case p.PaymentStatus == domain.PaymentPaid:
		return Attempt{}, WidgetOptions{}, ErrAlreadyPaid
	case !domain.Positive(p.Amount):
		return Attempt{}, WidgetOptions{}, ErrOnlinePaymentUnavailable
	}
	amount := domain.Round2(*p.Amount)

	a, err := o.open(target)
	if err != nil {
		return Attempt{}, WidgetOptions{}, err
	}

	gw, err := o.gateway.CreateOrder(ctx, OrderRequest{Amount: amount, Receipt: a.ID, Target: &target})
	if err != nil {
		err = Unavailable("create order", err)
		o.logger.Warn("gateway order failed", zap.String("attempt", a.ID), zap.String("target", target.Key()), zap.Error(err))
		return o.resolve(a.ID, StateFailed, err), WidgetOptions{}, err
	}

	o.mu.Lock()
	a.Amount = amount
	a.GatewayOrderID = gw.ID
	a.State = StateAwaitingUserPayment
	a.UpdatedAt = o.now()
	snap := *a
	o.mu.Unlock()

	o.logger.Info("payment attempt opened",
		zap.String("attempt", snap.ID),
		zap.String("target", target.Key()),
		zap.String("gateway_order", gw.ID),
		zap.String("amount", amount.StringFixed(2)),
	)
	description := p.Description
	if description == "" {
		description = "Order payment"
	}
	return snap, WidgetOptions{
		Key:         o.opts.KeyID,
		Amount:      gw.Amount,
		Currency:    gw.Currency,
		OrderID:     gw.ID,
		Name:        o.opts.ShopName,
		Description: description,
		Prefill: Prefill{
			Name:    p.Customer.Name,
			Email:   p.Customer.Email,
			Contact: p.Customer.Phone,
		},
	}, nil
}

// Complete handles the widget callback: it verifies the proof, then records the
// payment once. Failures end the attempt; nothing is retried.
func (o *Orchestrator) Complete(ctx context.Context, attemptID string, proof Proof) (Attempt, error) {
	proof.GatewayOrderID = strings.TrimSpace(proof.GatewayOrderID)
	proof.PaymentID = strings.TrimSpace(proof.PaymentID)
	proof.Signature = strings.TrimSpace(proof.Signature)

	o.mu.Lock()
	a, ok := o.attempts[attemptID]
	if !ok {
		o.mu.Unlock()
		return Attempt{}, ErrAttemptNotFound
	}
	if a.State != StateAwaitingUserPayment {
		snap := *a
		o.mu.Unlock()
		return snap, ErrInvalidState
	}
	if proof.PaymentID == "" || proof.Signature == "" {
		o.mu.Unlock()
		return Attempt{}, domain.NewValidationError("razorpay_payment_id", "payment id and signature are required")
	}
	a.State = StateAwaitingVerification
	a.PaymentID = proof.PaymentID
	a.UpdatedAt = o.now()
	target := a.Target
	gatewayOrderID := a.GatewayOrderID
	o.mu.Unlock()

	if proof.GatewayOrderID != gatewayOrderID {
		verr := &VerificationError{PaymentID: proof.PaymentID, Err: errors.New("gateway order does not belong to this attempt")}
		return o.resolve(attemptID, StateFailed, verr), verr
	}
	if err := o.verifier.Verify(ctx, proof); err != nil {
		verr := &VerificationError{PaymentID: proof.PaymentID, Err: err}
		o.logger.Warn("payment verification failed", zap.String("attempt", attemptID), zap.String("payment_id", proof.PaymentID), zap.Error(err))
		return o.resolve(attemptID, StateFailed, verr), verr
	}
	if err := o.settler.MarkPaid(ctx, target, proof); err != nil {
		perr := &PartialUpdateError{PaymentID: proof.PaymentID, Err: err}
		o.logger.Error("verified payment not recorded",
			zap.String("attempt", attemptID),
			zap.String("target", target.Key()),
			zap.String("payment_id", proof.PaymentID),
			zap.Error(err),
		)
		return o.resolve(attemptID, StateFailed, perr), perr
	}
	o.logger.Info("payment settled", zap.String("attempt", attemptID), zap.String("target", target.Key()), zap.String("payment_id", proof.PaymentID))
	return o.resolve(attemptID, StateSettled, nil), nil
}

// Dismiss cancels an attempt waiting for the user. The attempt returns to IDLE and is dropped.
func (o *Orchestrator) Dismiss(attemptID string) (Attempt, error) {
	o.mu.Lock()
	a, ok := o.attempts[attemptID]
	if !ok {
		o.mu.Unlock()
		return Attempt{}, ErrAttemptNotFound
	}
	if a.State != StateAwaitingUserPayment {
		snap := *a
		o.mu.Unlock()
		return snap, ErrInvalidState
	}
	o.mu.Unlock()
	return o.resolve(attemptID, StateIdle, nil), nil
}

// Get returns a snapshot of an open attempt.
func (o *Orchestrator) Get(attemptID string) (Attempt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return *a, nil
}

// Open reports how many attempts are currently tracked.
func (o *Orchestrator) Open() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.attempts)
}

func (o *Orchestrator) open(target domain.PaymentTarget) (*Attempt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	o.sweep(now)

	key := target.Key()
	if id, ok := o.inFlight[key]; ok {
		existing, ok := o.attempts[id]
		if ok && !o.stale(existing) {
			return nil, ErrAttemptInFlight
		}
		// The superseded widget may still capture money, so its attempt stays
		// completable. Only the guard moves to the new attempt.
		if ok {
			existing.Superseded = true
		}
		delete(o.inFlight, key)
	}

	a := &Attempt{
		ID:        o.newID(),
		Target:    target,
		State:     StateAwaitingGatewayOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.attempts[a.ID] = a
	o.inFlight[key] = a.ID
	return a, nil
}

// sweep forgets superseded attempts nobody completed within keepSuperseded.
func (o *Orchestrator) sweep(now time.Time) {
	for id, a := range o.attempts {
		if a.Superseded && a.State == StateAwaitingUserPayment && now.Sub(a.UpdatedAt) > keepSuperseded {
			delete(o.attempts, id)
		}
	}
}

func (o *Orchestrator) stale(a *Attempt) bool {
	if o.opts.StaleAfter <= 0 || a.State != StateAwaitingUserPayment {
		return false
	}
	return o.now().Sub(a.UpdatedAt) > o.opts.StaleAfter
}

// resolve moves an attempt to its final state and forgets it.
func (o *Orchestrator) resolve(attemptID string, state State, cause error) Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.attempts[attemptID]
	if !ok {
		return Attempt{ID: attemptID, State: state}
	}
	a.State = state
	a.UpdatedAt = o.now()
	if cause != nil {
		a.Error = cause.Error()
	}
	snap := *a
	delete(o.attempts, attemptID)
	if o.inFlight[a.Target.Key()] == attemptID {
		delete(o.inFlight, a.Target.Key())
	}
	return snap
}
