package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tailorshop/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	amounts  []decimal.Decimal
	requests []OrderRequest
	err      error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req OrderRequest) (GatewayOrder, error) {
	g.mu.Lock()
	g.calls++
	g.amounts = append(g.amounts, req.Amount)
	g.requests = append(g.requests, req)
	n := g.calls
	g.mu.Unlock()
	if g.err != nil {
		return GatewayOrder{}, g.err
	}
	return GatewayOrder{
		ID:       "order_" + string(rune('A'+n-1)),
		Amount:   domain.MinorUnits(req.Amount),
		Currency: "INR",
		Receipt:  req.Receipt,
		Target:   req.Target,
	}, nil
}

type fakeVerifier struct {
	err   error
	calls int
}

func (v *fakeVerifier) Verify(_ context.Context, _ Proof) error {
	v.calls++
	return v.err
}

type fakePayables struct {
	payable Payable
	err     error
}

func (p *fakePayables) Payable(_ context.Context, _ domain.PaymentTarget) (Payable, error) {
	return p.payable, p.err
}

type fakeSettler struct {
	mu     sync.Mutex
	err    error
	paid   []domain.PaymentTarget
	proofs []Proof
}

func (s *fakeSettler) MarkPaid(_ context.Context, target domain.PaymentTarget, proof Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.paid = append(s.paid, target)
	s.proofs = append(s.proofs, proof)
	return nil
}

var readymadeTarget = domain.PaymentTarget{Kind: domain.TargetOrder, EntityID: "ord-1", Group: domain.GroupReadymade}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newTestOrchestrator(gw *fakeGateway, v *fakeVerifier, p *fakePayables, s *fakeSettler) *Orchestrator {
	return New(gw, v, p, s, Options{KeyID: "rzp_test_key", ShopName: "Tailor Shop"}, nil)
}

func payable(total string) *fakePayables {
	return &fakePayables{payable: Payable{
		Amount:        amount(total),
		PaymentStatus: domain.PaymentPending,
		Customer:      domain.Customer{Name: "Asha", Email: "asha@example.com", Phone: "98765"},
	}}
}

func TestBegin_HappyPathThroughSettlement(t *testing.T) {
	gw := &fakeGateway{}
	v := &fakeVerifier{}
	s := &fakeSettler{}
	o := newTestOrchestrator(gw, v, payable("1000"), s)

	a, widget, err := o.Begin(context.Background(), readymadeTarget)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingUserPayment, a.State)
	assert.Equal(t, int64(100000), widget.Amount)
	assert.Equal(t, "rzp_test_key", widget.Key)
	assert.Equal(t, "order_A", widget.OrderID)
	assert.Equal(t, Prefill{Name: "Asha", Email: "asha@example.com", Contact: "98765"}, widget.Prefill)
	require.Len(t, gw.amounts, 1)
	assert.True(t, gw.amounts[0].Equal(decimal.NewFromInt(1000)))

	done, err := o.Complete(context.Background(), a.ID, Proof{GatewayOrderID: "order_A", PaymentID: "pay_1", Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, StateSettled, done.State)
	require.Len(t, s.paid, 1)
	assert.Equal(t, readymadeTarget, s.paid[0])
	assert.Equal(t, "pay_1", s.proofs[0].PaymentID)
	assert.Equal(t, 0, o.Open(), "resolved attempts are discarded")
}

func TestBegin_RejectsUnpayableTargets(t *testing.T) {
	cases := []struct {
		name    string
		payable Payable
		want    error
	}{
		{"unpriced laundry", Payable{PaymentStatus: domain.PaymentPending}, ErrOnlinePaymentUnavailable},
		{"zero total", Payable{Amount: amount("0"), PaymentStatus: domain.PaymentPending}, ErrOnlinePaymentUnavailable},
		{"already paid", Payable{Amount: amount("10"), PaymentStatus: domain.PaymentPaid}, ErrAlreadyPaid},
		{"delivered", Payable{Amount: amount("10"), Locked: true}, ErrGroupLocked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{}
			o := newTestOrchestrator(gw, &fakeVerifier{}, &fakePayables{payable: tc.payable}, &fakeSettler{})
			_, _, err := o.Begin(context.Background(), readymadeTarget)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, domain.ErrConflict)
			assert.Equal(t, 0, gw.calls)
		})
	}
}

func TestBegin_GatewayFailureIsNetworkError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("status 500")}
	o := newTestOrchestrator(gw, &fakeVerifier{}, payable("250"), &fakeSettler{})

	a, _, err := o.Begin(context.Background(), readymadeTarget)
	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, StateFailed, a.State)
	assert.Equal(t, 1, gw.calls, "gateway order creation is not retried")
	assert.Equal(t, 0, o.Open())

	gw.err = nil
	_, _, err = o.Begin(context.Background(), readymadeTarget)
	assert.NoError(t, err, "guard is released after failure")
}

// blockingGateway parks its first call until release is closed.
type blockingGateway struct {
	fakeGateway
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *blockingGateway) CreateOrder(ctx context.Context, req OrderRequest) (GatewayOrder, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
	}
	return g.fakeGateway.CreateOrder(ctx, req)
}

func TestBegin_InFlightGuardRejectsConcurrentAttempt(t *testing.T) {
	gw := &blockingGateway{started: make(chan struct{}), release: make(chan struct{})}
	o := New(gw, &fakeVerifier{}, payable("500"), &fakeSettler{}, Options{}, nil)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, firstErr = o.Begin(context.Background(), readymadeTarget)
	}()
	<-gw.started

	_, _, err := o.Begin(context.Background(), readymadeTarget)
	assert.ErrorIs(t, err, ErrAttemptInFlight)

	other := readymadeTarget
	other.Group = domain.GroupLaundry
	_, _, err = o.Begin(context.Background(), other)
	assert.NoError(t, err, "other groups are not blocked")

	close(gw.release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, 2, gw.calls)
}

func TestComplete_VerificationFailure(t *testing.T) {
	v := &fakeVerifier{err: errors.New("signature mismatch")}
	s := &fakeSettler{}
	o := newTestOrchestrator(&fakeGateway{}, v, payable("100"), s)

	a, _, err := o.Begin(context.Background(), readymadeTarget)
	require.NoError(t, err)

	done, err := o.Complete(context.Background(), a.ID, Proof{GatewayOrderID: "order_A", PaymentID: "pay_9", Signature: "bad"})
	var verr *VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "pay_9", PaymentIDOf(err))
	assert.Contains(t, err.Error(), "contact support with payment ID pay_9")
	assert.Equal(t, StateFailed, done.State)
	assert.Empty(t, s.paid)
}

func TestComplete_MismatchedGatewayOrder(t *testing.T) {
	v := &fakeVerifier{}
	o := newTestOrchestrator(&fakeGateway{}, v, payable("100"), &fakeSettler{})
	a, _, err := o.Begin(context.Background(), readymadeTarget)
	require.NoError(t, err)

	_, err = o.Complete(context.Background(), a.ID, Proof{GatewayOrderID: "order_other", PaymentID: "pay_1", Signature: "sig"})
	var verr *VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, v.calls)
}

func TestComplete_PartialUpdate(t *testing.T) {
	s := &fakeSettler{err: errors.New("db down")}
	o := newTestOrchestrator(&fakeGateway{}, &fakeVerifier{}, payable("100"), s)
	a, _, err := o.Begin(context.Background(), readymadeTarget)
	require.NoError(t, err)

	done, err := o.Complete(context.Background(), a.ID, Proof{GatewayOrderID: "order_A", PaymentID: "pay_7", Signature: "sig"})
	var perr *PartialUpdateError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "pay_7", perr.PaymentID)
	assert.Equal(t, StateFailed, done.State)

	_, err = o.Complete(context.Background(), a.ID, Proof{GatewayOrderID: "order_A", PaymentID: "pay_7", Signature: "sig"})
	assert.ErrorIs(t, err, ErrAttemptNotFound, "the local update is attempted at most once")
}

func TestComplete_RequiresProofFields(t *testing.T) {
	o := newTestOrchestrator(&fakeGateway{}, &fakeVerifier{}, payable("100"), &fakeSettler{})
	a, _, err := o.Begin(context.Background(), readymadeTarget)
	require.NoError(t, err)

	_, err = o.Complete(context.Background(), a.ID, Proof{GatewayOrderID: "order_A"})
	assert.True(t, domain.IsValidation(err))

	got, err := o.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingUserPayment, got.State)
}

func TestDismiss_ReturnsToIdleAndReleasesGuard(t *testing.T) {
	gw := &fakeGateway{}
	o := newTestOrchestrator(gw, &fakeVerifier{}, payable("100"), &fakeSettler{})
	a, _, err := o.Begin(context.Background(), readymadeTarget)
	require.NoError(t, err)

	dismissed, err := o.Dismiss(a.ID)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, dismissed.State)

	_, err = o.Get(a.ID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	_, _, err = o.Begin(context.Background(), readymadeTarget)
	assert.NoError(t, err)
}

func TestBegin_StaleAttemptReleasesGuard(t *testing.T) {
	gw := &fakeGateway{}
	o := New(gw, &fakeVerifier{}, payable("100"), &fakeSettler{}, Options{StaleAfter: time.Minute}, nil)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }

	_, _, err := o.Begin(context.Background(), readymadeTarget)
	require.NoError(t, err)
	_, _, err = o.Begin(context.Background(), readymadeTarget)
	require.ErrorIs(t, err, ErrAttemptInFlight)

	now = now.Add(2 * time.Minute)
	_, _, err = o.Begin(context.Background(), readymadeTarget)
	require.NoError(t, err)
	assert.Equal(t, 2, o.Open(), "the superseded attempt stays completable")
}

func TestComplete_SupersededAttemptStillSettles(t *testing.T) {
	s := &fakeSettler{}
	o := New(&fakeGateway{}, &fakeVerifier{}, payable("100"), s, Options{StaleAfter: time.Minute}, nil)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }
	ctx := context.Background()

	first, _, err := o.Begin(ctx, readymadeTarget)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	second, _, err := o.Begin(ctx, readymadeTarget)
	require.NoError(t, err)

	old, err := o.Get(first.ID)
	require.NoError(t, err)
	assert.True(t, old.Superseded)

	done, err := o.Complete(ctx, first.ID, Proof{GatewayOrderID: "order_A", PaymentID: "pay_1", Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, StateSettled, done.State)
	require.Len(t, s.paid, 1)

	// The newer widget captures too; the group keeps the first payment.
	s.err = &DuplicatePaymentError{PaymentID: "pay_2", SettledID: "pay_1"}
	_, err = o.Complete(ctx, second.ID, Proof{GatewayOrderID: "order_B", PaymentID: "pay_2", Signature: "sig"})
	var perr *PartialUpdateError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "pay_2", PaymentIDOf(err))
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Equal(t, 0, o.Open())
}

func TestBegin_SweepsAbandonedSupersededAttempts(t *testing.T) {
	o := New(&fakeGateway{}, &fakeVerifier{}, payable("100"), &fakeSettler{}, Options{StaleAfter: time.Minute}, nil)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }
	ctx := context.Background()

	first, _, err := o.Begin(ctx, readymadeTarget)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, _, err = o.Begin(ctx, readymadeTarget)
	require.NoError(t, err)

	now = now.Add(keepSuperseded + time.Hour)
	_, _, err = o.Begin(ctx, readymadeTarget)
	require.NoError(t, err)
	_, err = o.Get(first.ID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
	assert.Equal(t, 2, o.Open())
}

func TestBegin_GatewayOrderCarriesTarget(t *testing.T) {
	gw := &fakeGateway{}
	o := newTestOrchestrator(gw, &fakeVerifier{}, payable("100"), &fakeSettler{})

	a, _, err := o.Begin(context.Background(), readymadeTarget)
	require.NoError(t, err)
	require.Len(t, gw.requests, 1)
	require.NotNil(t, gw.requests[0].Target)
	assert.Equal(t, readymadeTarget, *gw.requests[0].Target)
	assert.Equal(t, a.ID, gw.requests[0].Receipt)
}

func TestUnavailable(t *testing.T) {
	var nerr *NetworkError
	assert.ErrorAs(t, Unavailable("create order", errors.New("dial tcp: refused")), &nerr)

	wrapped := &NetworkError{Op: "fetch order", Err: errors.New("timeout")}
	assert.Same(t, wrapped, Unavailable("create order", wrapped))

	invalid := domain.NewValidationError("amount", "amount must be positive")
	assert.True(t, domain.IsValidation(Unavailable("create order", invalid)))
	assert.False(t, errors.As(Unavailable("create order", invalid), &nerr))
	assert.NoError(t, Unavailable("create order", nil))
}
