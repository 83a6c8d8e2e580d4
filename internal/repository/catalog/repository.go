package catalog

import (
	"context"

	"tailorshop/internal/domain"
)

// Repository persists laundry services and unstitched suits.
type Repository interface {
	List(ctx context.Context, kind domain.CatalogKind) ([]domain.CatalogItem, error)
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
	Delete(ctx context.Context, kind domain.CatalogKind, id string) error
	Categories(ctx context.Context, kind domain.CatalogKind) ([]string, error)
}
