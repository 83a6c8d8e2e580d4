package alteration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"tailorshop/internal/checkout"
	"tailorshop/internal/domain"
	"tailorshop/internal/events"
	altrepo "tailorshop/internal/repository/alteration"

	"go.uber.org/zap"
)

type alterationRepo interface {
	Create(ctx context.Context, a domain.Alteration) (*domain.Alteration, error)
	GetByID(ctx context.Context, id string) (*domain.Alteration, error)
	List(ctx context.Context, f altrepo.Filter) ([]domain.Alteration, error)
}

type Service struct {
	repo      alterationRepo
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func New(repo alterationRepo, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// BookInput is a tailoring booking request. Address and shop number are optional.
type BookInput struct {
	Customer domain.Customer `json:"customer"`
	Note     string          `json:"note"`
	Quantity int             `json:"quantity"`
	ShopNo   string          `json:"shopNo"`
}

// Book stores a booking. The price is always set later by staff.
func (s *Service) Book(ctx context.Context, email string, in BookInput) (*domain.Alteration, error) {
	c := in.Customer.Normalize()
	if c.Email == "" {
		c.Email = strings.ToLower(strings.TrimSpace(email))
	}
	switch {
	case c.Name == "":
		return nil, domain.NewValidationError("customer.name", "name is required")
	case c.Phone == "":
		return nil, domain.NewValidationError("customer.phone", "phone is required")
	}
	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}

	created, err := s.repo.Create(ctx, domain.Alteration{
		Customer: c,
		Note:     checkout.SanitizeNote(in.Note),
		Quantity: qty,
		ShopNo:   strings.TrimSpace(in.ShopNo),
		State:    domain.GroupState{Status: domain.StatusPending, PaymentStatus: domain.PaymentPending},
	})
	if err != nil {
		return nil, err
	}
	e := events.Event{
		Type:          events.AlterationCreated,
		Kind:          domain.TargetAlteration,
		EntityID:      created.ID,
		Group:         domain.GroupAlteration,
		Status:        created.State.Status,
		PaymentStatus: created.State.PaymentStatus,
		CustomerEmail: created.Customer.Email,
		OccurredAt:    s.now(),
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publish event", zap.String("type", e.Type), zap.String("id", created.ID), zap.Error(err))
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Alteration, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Alteration, error) {
	return s.repo.List(ctx, altrepo.Filter{})
}

// ListForCustomer returns the bookings made with email, newest first, numbered A0001... oldest first.
func (s *Service) ListForCustomer(ctx context.Context, email string) ([]domain.Alteration, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return []domain.Alteration{}, nil
	}
	list, err := s.repo.List(ctx, altrepo.Filter{CustomerEmail: email})
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(list))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return list[idx[a]].CreatedAt.Before(list[idx[b]].CreatedAt)
	})
	for n, i := range idx {
		list[i].DisplayID = fmt.Sprintf("A%04d", n+1)
	}
	return list, nil
}
