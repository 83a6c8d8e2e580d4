package cart

import (
	"context"

	"tailorshop/internal/domain"
)

// Mutation receives the current lines of a cart and returns the lines to keep.
type Mutation func(items []domain.CartItem) ([]domain.CartItem, error)

// Repository persists one cart per owner (a customer id or a guest subject).
type Repository interface {
	Load(ctx context.Context, owner string) ([]domain.CartItem, error)
	// Update applies fn to the owner's cart under a row lock and stores the result.
	Update(ctx context.Context, owner string, fn Mutation) ([]domain.CartItem, error)
	Clear(ctx context.Context, owner string) error
}
