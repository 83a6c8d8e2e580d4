package cart

import (
	"context"
	"fmt"
	"strings"

	"tailorshop/internal/cart"
	"tailorshop/internal/domain"
	cartrepo "tailorshop/internal/repository/cart"

	"go.uber.org/zap"
)

type cartRepo interface {
	Load(ctx context.Context, owner string) ([]domain.CartItem, error)
	Update(ctx context.Context, owner string, fn cartrepo.Mutation) ([]domain.CartItem, error)
	Clear(ctx context.Context, owner string) error
}

type catalogRepo interface {
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
}

// Service keeps a cart per session owner. Prices and fulfillment tags are
// always taken from the catalog, never from the client.
type Service struct {
	repo    cartRepo
	catalog catalogRepo
	logger  *zap.Logger
}

func New(repo cartRepo, catalog catalogRepo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, catalog: catalog, logger: logger}
}

type AddInput struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
}

func (s *Service) Items(ctx context.Context, owner string) ([]domain.CartItem, error) {
	return s.repo.Load(ctx, owner)
}

func (s *Service) Add(ctx context.Context, owner string, in AddInput) ([]domain.CartItem, error) {
	line, err := s.Resolve(ctx, in.ItemID, in.Size, in.Quantity)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, func(st *cart.Store) error {
		st.Add(line)
		return nil
	})
}

func (s *Service) UpdateQuantity(ctx context.Context, owner, lineID string, quantity int) ([]domain.CartItem, error) {
	return s.mutate(ctx, owner, func(st *cart.Store) error {
		return st.UpdateQuantity(lineID, quantity)
	})
}

func (s *Service) Remove(ctx context.Context, owner, lineID string) ([]domain.CartItem, error) {
	return s.mutate(ctx, owner, func(st *cart.Store) error {
		st.Remove(lineID)
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, owner string) error {
	return s.repo.Clear(ctx, owner)
}

// Resolve builds a cart line for catalog item itemID. Laundry items become
// deferred-price lines tagged with their laundry type; unstitched items with
// sizes need one of them chosen.
func (s *Service) Resolve(ctx context.Context, itemID, size string, quantity int) (domain.CartItem, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return domain.CartItem{}, domain.NewValidationError("itemId", "itemId is required")
	}
	item, err := s.catalog.GetByID(ctx, itemID)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("catalog item %s: %w", itemID, err)
	}
	line := domain.CartItem{
		ID:        item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  quantity,
		Image:     item.Image(),
	}
	switch item.Kind {
	case domain.KindLaundry:
		line.FulfillmentTag = item.Category
		line.Category = domain.LegacyLaundryCategory
	case domain.KindUnstitched:
		size = strings.TrimSpace(size)
		if len(item.Sizes) > 0 {
			if !contains(item.Sizes, size) {
				return domain.CartItem{}, domain.NewValidationError("size", "choose one of "+strings.Join(item.Sizes, ", "))
			}
			line.ID = LineID(item.ID, size)
			line.Size = size
		}
		line.Category = item.Category
	}
	return line, nil
}

// LineID keys a sized suit separately from the same suit in another size.
func LineID(itemID, size string) string {
	if size == "" {
		return itemID
	}
	return itemID + "#" + size
}

// CatalogID recovers the catalog item id from a line id.
func CatalogID(lineID string) string {
	id, _, _ := strings.Cut(lineID, "#")
	return id
}

func (s *Service) mutate(ctx context.Context, owner string, apply func(*cart.Store) error) ([]domain.CartItem, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, domain.NewValidationError("session", "a session is required to use the cart")
	}
	return s.repo.Update(ctx, owner, func(items []domain.CartItem) ([]domain.CartItem, error) {
		st := cart.New(items...)
		if err := apply(st); err != nil {
			return nil, err
		}
		return st.Items(), nil
	})
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
