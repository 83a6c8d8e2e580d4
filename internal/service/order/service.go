package order

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"tailorshop/internal/cart"
	"tailorshop/internal/checkout"
	"tailorshop/internal/domain"
	"tailorshop/internal/events"
	orderrepo "tailorshop/internal/repository/order"
	cartsvc "tailorshop/internal/service/cart"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f orderrepo.Filter) ([]domain.Order, error)
}

type carts interface {
	Items(ctx context.Context, owner string) ([]domain.CartItem, error)
	Clear(ctx context.Context, owner string) error
	Resolve(ctx context.Context, itemID, size string, quantity int) (domain.CartItem, error)
}

type Service struct {
	repo      orderRepo
	carts     carts
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func New(repo orderRepo, carts carts, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, carts: carts, publisher: publisher, logger: logger, now: time.Now}
}

// ItemInput is a line submitted with an explicit order. Only the id, size and
// quantity are trusted; everything else is re-read from the catalog.
type ItemInput struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
}

// CreateInput accepts both the cart-less body older clients send
// ({customer, items, total, note, paymentStatus}) and {fromCart: true, ...}.
type CreateInput struct {
	FromCart      bool             `json:"fromCart"`
	Customer      domain.Customer  `json:"customer"`
	Items         []ItemInput      `json:"items"`
	Total         *decimal.Decimal `json:"total"`
	Note          string           `json:"note"`
	PaymentMethod string           `json:"paymentMethod"`
	PaymentStatus string           `json:"paymentStatus"`
}

// DraftInput previews checkout for the current cart.
type DraftInput struct {
	Customer      domain.Customer `json:"customer"`
	Note          string          `json:"note"`
	PaymentMethod string          `json:"paymentMethod"`
}

// Requester identifies who is placing or reading orders.
type Requester struct {
	Owner string
	Email string
}

// Draft builds the review screen for the requester's cart.
func (s *Service) Draft(ctx context.Context, who Requester, in DraftInput) (*checkout.Draft, error) {
	method, err := domain.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	items, err := s.carts.Items(ctx, who.Owner)
	if err != nil {
		return nil, err
	}
	return checkout.BuildDraft(items, withEmail(in.Customer, who.Email), in.Note, method)
}

// Create validates and stores an order. Cart-based orders clear the cart afterwards.
func (s *Service) Create(ctx context.Context, who Requester, in CreateInput) (*domain.Order, error) {
	rawMethod := in.PaymentMethod
	if strings.TrimSpace(rawMethod) == "" {
		rawMethod = in.PaymentStatus
	}
	method, err := domain.ParsePaymentMethod(rawMethod)
	if err != nil {
		return nil, err
	}

	items, err := s.items(ctx, who, in)
	if err != nil {
		return nil, err
	}
	draft, err := checkout.BuildDraft(items, withEmail(in.Customer, who.Email), in.Note, method)
	if err != nil {
		return nil, err
	}
	if in.Total != nil && !domain.Round2(*in.Total).Equal(draft.FixedPriceTotal) {
		s.logger.Warn("client total differs from computed total",
			zap.String("client", in.Total.StringFixed(2)),
			zap.String("computed", draft.FixedPriceTotal.StringFixed(2)),
		)
	}

	readymadePayment := domain.PaymentCashOnDelivery
	if method == domain.MethodOnline {
		readymadePayment = domain.PaymentPending
	}
	created, err := s.repo.Create(ctx, domain.Order{
		Customer:        draft.Customer,
		Items:           draft.Items,
		Note:            draft.Note,
		FixedPriceTotal: draft.FixedPriceTotal,
		PaymentMethod:   method,
		Laundry:         domain.GroupState{Status: domain.StatusPending, PaymentStatus: domain.PaymentPending},
		Readymade:       domain.GroupState{Status: domain.StatusPending, PaymentStatus: readymadePayment},
	})
	if err != nil {
		return nil, err
	}

	if in.FromCart {
		if err := s.carts.Clear(ctx, who.Owner); err != nil {
			s.logger.Warn("clear cart after order", zap.String("order_id", created.ID), zap.Error(err))
		}
	}
	s.publish(ctx, events.Event{
		Type:          events.OrderCreated,
		Kind:          domain.TargetOrder,
		EntityID:      created.ID,
		Status:        domain.StatusPending,
		Amount:        &created.FixedPriceTotal,
		CustomerEmail: created.Customer.Email,
	})
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx, orderrepo.Filter{})
}

// ListForCustomer returns the orders placed with email, newest first, each
// carrying a short display id counted from the customer's first order.
func (s *Service) ListForCustomer(ctx context.Context, email string) ([]domain.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return []domain.Order{}, nil
	}
	orders, err := s.repo.List(ctx, orderrepo.Filter{CustomerEmail: email})
	if err != nil {
		return nil, err
	}
	AssignDisplayIDs(orders)
	return orders, nil
}

// AssignDisplayIDs numbers orders S0001, S0002... oldest first without
// changing their order in the slice.
func AssignDisplayIDs(orders []domain.Order) {
	idx := make([]int, len(orders))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return orders[idx[a]].CreatedAt.Before(orders[idx[b]].CreatedAt)
	})
	for n, i := range idx {
		orders[i].DisplayID = fmt.Sprintf("S%04d", n+1)
	}
}

func (s *Service) items(ctx context.Context, who Requester, in CreateInput) ([]domain.CartItem, error) {
	if in.FromCart {
		return s.carts.Items(ctx, who.Owner)
	}
	lines := make([]domain.CartItem, 0, len(in.Items))
	for i, it := range in.Items {
		line, err := s.carts.Resolve(ctx, cartsvc.CatalogID(it.ID), it.Size, it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		lines = append(lines, line)
	}
	// Repeated ids merge the same way the cart does.
	return cart.New(lines...).Items(), nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publish event", zap.String("type", e.Type), zap.String("id", e.EntityID), zap.Error(err))
	}
}

func withEmail(c domain.Customer, email string) domain.Customer {
	if strings.TrimSpace(c.Email) == "" {
		c.Email = email
	}
	return c
}
