package customer

import (
	"context"

	"tailorshop/internal/domain"
)

// Profile carries the editable fields of an account.
type Profile struct {
	Name    string
	Phone   string
	Address string
}

// Repository persists and fetches customer accounts.
type Repository interface {
	Create(ctx context.Context, a domain.Account) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, id string, p Profile) (*domain.Account, error)
}
