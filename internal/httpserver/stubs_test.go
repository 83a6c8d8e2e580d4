package httpserver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"tailorshop/internal/checkout"
	"tailorshop/internal/domain"
	"tailorshop/internal/events"
	"tailorshop/internal/payment"
	altsvc "tailorshop/internal/service/alteration"
	cartsvc "tailorshop/internal/service/cart"
	catalogsvc "tailorshop/internal/service/catalog"
	customersvc "tailorshop/internal/service/customer"
	ordersvc "tailorshop/internal/service/order"
	"tailorshop/internal/service/reconcile"
	"tailorshop/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"
)

type stubAuth struct {
	sessions *session.Manager
	err      error
}

func (s *stubAuth) issue(role session.Role, subject, email string) (*customersvc.Auth, error) {
	if s.err != nil {
		return nil, s.err
	}
	token, sess, err := s.sessions.Issue(role, subject, email, "")
	if err != nil {
		return nil, err
	}
	return &customersvc.Auth{Token: token, Session: sess}, nil
}

func (s *stubAuth) Register(_ context.Context, in customersvc.RegisterInput) (*customersvc.Auth, error) {
	return s.issue(session.RoleCustomer, "cust-1", in.Email)
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (*customersvc.Auth, error) {
	return s.issue(session.RoleCustomer, "cust-1", email)
}

func (s *stubAuth) AdminLogin(_ context.Context, email, _ string) (*customersvc.Auth, error) {
	return s.issue(session.RoleAdmin, email, email)
}

func (s *stubAuth) Guest() (*customersvc.Auth, error) {
	return s.issue(session.RoleGuest, "guest-1", "")
}

func (s *stubAuth) Logout(context.Context, session.Session) error { return s.err }

func (s *stubAuth) Profile(_ context.Context, id string) (*domain.Account, error) {
	return &domain.Account{ID: id, Email: "asha@example.com", Name: "Asha"}, s.err
}

func (s *stubAuth) UpdateProfile(_ context.Context, id string, in customersvc.ProfileInput) (*domain.Account, error) {
	return &domain.Account{ID: id, Name: in.Name, Phone: in.Phone, Address: in.Address}, s.err
}

type stubCatalog struct {
	items   []domain.CatalogItem
	created []catalogsvc.Input
}

func (s *stubCatalog) List(_ context.Context, kind domain.CatalogKind) ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	for _, it := range s.items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubCatalog) Categories(context.Context, domain.CatalogKind) ([]string, error) {
	return []string{"Dry Clean"}, nil
}

func (s *stubCatalog) Create(_ context.Context, kind domain.CatalogKind, in catalogsvc.Input) (*domain.CatalogItem, error) {
	s.created = append(s.created, in)
	return &domain.CatalogItem{ID: "new", Kind: kind, Name: in.Name, Price: in.Price}, nil
}

func (s *stubCatalog) Update(_ context.Context, kind domain.CatalogKind, id string, in catalogsvc.Input) (*domain.CatalogItem, error) {
	return &domain.CatalogItem{ID: id, Kind: kind, Name: in.Name}, nil
}

func (s *stubCatalog) Delete(context.Context, domain.CatalogKind, string) error { return nil }

type stubCart struct {
	owners map[string][]domain.CartItem
}

func (s *stubCart) Items(_ context.Context, owner string) ([]domain.CartItem, error) {
	return s.owners[owner], nil
}

func (s *stubCart) Add(_ context.Context, owner string, in cartsvc.AddInput) ([]domain.CartItem, error) {
	if s.owners == nil {
		s.owners = map[string][]domain.CartItem{}
	}
	s.owners[owner] = append(s.owners[owner], domain.CartItem{
		ID:        in.ItemID,
		Name:      in.ItemID,
		UnitPrice: decimal.NewFromInt(100),
		Quantity:  in.Quantity,
	})
	return s.owners[owner], nil
}

func (s *stubCart) UpdateQuantity(_ context.Context, owner, _ string, quantity int) ([]domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.NewValidationError("quantity", "quantity must be at least 1")
	}
	return s.owners[owner], nil
}

func (s *stubCart) Remove(_ context.Context, owner, _ string) ([]domain.CartItem, error) {
	return s.owners[owner], nil
}

func (s *stubCart) Clear(_ context.Context, owner string) error {
	delete(s.owners, owner)
	return nil
}

type stubOrders struct {
	orders map[string]*domain.Order
}

func (s *stubOrders) Draft(_ context.Context, _ ordersvc.Requester, in ordersvc.DraftInput) (*checkout.Draft, error) {
	return &checkout.Draft{Customer: in.Customer, Note: in.Note}, nil
}

func (s *stubOrders) Create(_ context.Context, who ordersvc.Requester, in ordersvc.CreateInput) (*domain.Order, error) {
	o := &domain.Order{ID: "o-new", Customer: in.Customer}
	o.Customer.Email = who.Email
	return o, nil
}

func (s *stubOrders) Get(_ context.Context, id string) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *stubOrders) List(context.Context) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubOrders) ListForCustomer(_ context.Context, email string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range s.orders {
		if strings.EqualFold(o.Customer.Email, email) {
			out = append(out, *o)
		}
	}
	return out, nil
}

type stubAlterations struct {
	alterations map[string]*domain.Alteration
	bookedBy    string
}

func (s *stubAlterations) Book(_ context.Context, email string, in altsvc.BookInput) (*domain.Alteration, error) {
	s.bookedBy = email
	return &domain.Alteration{ID: "a-new", Customer: in.Customer, Quantity: in.Quantity}, nil
}

func (s *stubAlterations) Get(_ context.Context, id string) (*domain.Alteration, error) {
	a, ok := s.alterations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (s *stubAlterations) List(context.Context) ([]domain.Alteration, error) { return nil, nil }

func (s *stubAlterations) ListForCustomer(context.Context, string) ([]domain.Alteration, error) {
	return nil, nil
}

type stubReconcile struct {
	err      error
	payments []reconcile.PaymentInput
	orders   *stubOrders
}

func (s *stubReconcile) order(id string) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.orders.Get(context.Background(), id)
}

func (s *stubReconcile) SetAdminTotal(_ context.Context, id string, _ domain.Group, _ decimal.Decimal) (*domain.Order, error) {
	return s.order(id)
}

func (s *stubReconcile) SetStatus(_ context.Context, id string, _ domain.Group, _ string) (*domain.Order, error) {
	return s.order(id)
}

func (s *stubReconcile) RecordPayment(_ context.Context, id string, _ domain.Group, in reconcile.PaymentInput) (*domain.Order, error) {
	s.payments = append(s.payments, in)
	return s.order(id)
}

func (s *stubReconcile) SetAlterationAdminTotal(_ context.Context, id string, _ decimal.Decimal) (*domain.Alteration, error) {
	return &domain.Alteration{ID: id}, s.err
}

func (s *stubReconcile) SetAlterationStatus(_ context.Context, id, _ string) (*domain.Alteration, error) {
	return &domain.Alteration{ID: id}, s.err
}

func (s *stubReconcile) RecordAlterationPayment(_ context.Context, id string, in reconcile.PaymentInput) (*domain.Alteration, error) {
	s.payments = append(s.payments, in)
	return &domain.Alteration{ID: id}, s.err
}

type stubPayments struct {
	begun []domain.PaymentTarget
	err   error
}

func (s *stubPayments) Begin(_ context.Context, target domain.PaymentTarget) (payment.Attempt, payment.WidgetOptions, error) {
	if s.err != nil {
		return payment.Attempt{}, payment.WidgetOptions{}, s.err
	}
	s.begun = append(s.begun, target)
	return payment.Attempt{ID: "att-1", Target: target, State: payment.StateAwaitingUserPayment},
		payment.WidgetOptions{Key: "rzp_test", OrderID: "order_1"}, nil
}

func (s *stubPayments) Complete(_ context.Context, id string, proof payment.Proof) (payment.Attempt, error) {
	if s.err != nil {
		return payment.Attempt{}, s.err
	}
	return payment.Attempt{ID: id, State: payment.StateSettled, PaymentID: proof.PaymentID}, nil
}

func (s *stubPayments) Dismiss(id string) (payment.Attempt, error) {
	return payment.Attempt{ID: id, State: payment.StateIdle}, s.err
}

func (s *stubPayments) Get(id string) (payment.Attempt, error) {
	if id != "att-1" {
		return payment.Attempt{}, payment.ErrAttemptNotFound
	}
	return payment.Attempt{ID: id}, nil
}

// stubGateway keeps the orders it creates. Verify delegates to verifier when set.
type stubGateway struct {
	mu        sync.Mutex
	verifier  payment.Verifier
	verifyErr error
	createErr error
	amounts   []decimal.Decimal
	requests  []payment.OrderRequest
	orders    map[string]payment.GatewayOrder
}

func (s *stubGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (payment.GatewayOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return payment.GatewayOrder{}, s.createErr
	}
	s.amounts = append(s.amounts, req.Amount)
	s.requests = append(s.requests, req)
	gw := payment.GatewayOrder{
		ID:       fmt.Sprintf("order_%d", len(s.requests)),
		Amount:   domain.MinorUnits(req.Amount),
		Currency: "INR",
		Receipt:  req.Receipt,
		Target:   req.Target,
	}
	if s.orders == nil {
		s.orders = make(map[string]payment.GatewayOrder)
	}
	s.orders[gw.ID] = gw
	return gw, nil
}

func (s *stubGateway) FetchOrder(_ context.Context, id string) (payment.GatewayOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gw, ok := s.orders[id]
	if !ok {
		return payment.GatewayOrder{}, fmt.Errorf("gateway order %s: %w", id, domain.ErrNotFound)
	}
	return gw, nil
}

func (s *stubGateway) Verify(ctx context.Context, proof payment.Proof) error {
	if s.verifier != nil {
		return s.verifier.Verify(ctx, proof)
	}
	return s.verifyErr
}

type fixture struct {
	router      *gin.Engine
	sessions    *session.Manager
	catalog     *stubCatalog
	cart        *stubCart
	orders      *stubOrders
	alterations *stubAlterations
	reconcile   *stubReconcile
	payments    *stubPayments
	gateway     *stubGateway
	hub         *events.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions := session.NewManager("test-secret", time.Hour, nil)
	orders := &stubOrders{orders: map[string]*domain.Order{
		"o-1": {ID: "o-1", Customer: domain.Customer{Name: "Asha", Email: "asha@example.com"}},
		"o-2": {ID: "o-2", Customer: domain.Customer{Name: "Ravi", Email: "ravi@example.com"}},
		"o-g": {ID: "o-g", Customer: domain.Customer{Name: "Walk In"}},
	}}
	f := &fixture{
		sessions:    sessions,
		catalog:     &stubCatalog{items: []domain.CatalogItem{{ID: "wash", Kind: domain.KindLaundry, Name: "Shirt"}}},
		cart:        &stubCart{},
		orders:      orders,
		alterations: &stubAlterations{alterations: map[string]*domain.Alteration{"a-1": {ID: "a-1", Customer: domain.Customer{Email: "asha@example.com"}}}},
		reconcile:   &stubReconcile{orders: orders},
		payments:    &stubPayments{},
		gateway:     &stubGateway{},
		hub:         events.NewHub(4, zaptest.NewLogger(t)),
	}
	router, err := buildRouter(zaptest.NewLogger(t), nil, Deps{
		Sessions:    sessions,
		Auth:        &stubAuth{sessions: sessions},
		Catalog:     f.catalog,
		Cart:        f.cart,
		Orders:      f.orders,
		Alterations: f.alterations,
		Reconcile:   f.reconcile,
		Payments:    f.payments,
		Gateway:     f.gateway,
		Events:      f.hub,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	f.router = router
	return f
}

func (f *fixture) token(t *testing.T, role session.Role, subject, email string) string {
	t.Helper()
	token, _, err := f.sessions.Issue(role, subject, email, "")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}
