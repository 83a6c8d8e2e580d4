package alteration

import (
	"context"

	"tailorshop/internal/domain"
)

type Filter struct {
	CustomerEmail string
}

type Mutation func(a *domain.Alteration) error

// Repository stores alteration bookings.
type Repository interface {
	Create(ctx context.Context, a domain.Alteration) (*domain.Alteration, error)
	GetByID(ctx context.Context, id string) (*domain.Alteration, error)
	List(ctx context.Context, f Filter) ([]domain.Alteration, error)
	Update(ctx context.Context, id string, fn Mutation) (*domain.Alteration, error)
}
