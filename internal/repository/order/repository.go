package order

import (
	"context"

	"tailorshop/internal/domain"
)

// Filter narrows List. An empty filter returns every order.
type Filter struct {
	CustomerEmail string
}

// Mutation edits a normalized order inside the update transaction.
type Mutation func(o *domain.Order) error

// Repository stores orders. Rows written before per-group tracking existed are
// normalized on read and upgraded to the split layout on their next update.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns matching orders, newest first.
	List(ctx context.Context, f Filter) ([]domain.Order, error)
	Update(ctx context.Context, id string, fn Mutation) (*domain.Order, error)
}
