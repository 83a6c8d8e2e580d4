package catalog

import (
	"context"
	"strings"

	"tailorshop/internal/domain"
	catalogrepo "tailorshop/internal/repository/catalog"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	repo   catalogrepo.Repository
	logger *zap.Logger
}

func New(repo catalogrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Input is the admin payload for creating or replacing an item.
type Input struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	Sizes       []string        `json:"sizes"`
	Images      []string        `json:"images"`
}

func (s *Service) List(ctx context.Context, kind domain.CatalogKind) ([]domain.CatalogItem, error) {
	return s.repo.List(ctx, kind)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.CatalogItem, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Categories(ctx context.Context, kind domain.CatalogKind) ([]string, error) {
	return s.repo.Categories(ctx, kind)
}

func (s *Service) Create(ctx context.Context, kind domain.CatalogKind, in Input) (*domain.CatalogItem, error) {
	return s.save(ctx, in.item(kind, ""))
}

// Update replaces an item. The item must already exist in kind.
func (s *Service) Update(ctx context.Context, kind domain.CatalogKind, id string, in Input) (*domain.CatalogItem, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Kind != kind {
		return nil, domain.ErrNotFound
	}
	return s.save(ctx, in.item(kind, id))
}

func (s *Service) Delete(ctx context.Context, kind domain.CatalogKind, id string) error {
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.logger.Info("catalog item deleted", zap.String("kind", string(kind)), zap.String("id", id))
	return nil
}

// Import upserts items loaded in bulk, keeping ids when present.
func (s *Service) Import(ctx context.Context, items []domain.CatalogItem) (int, error) {
	n := 0
	for _, it := range items {
		if _, err := s.save(ctx, it); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *Service) save(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, item)
}

func (in Input) item(kind domain.CatalogKind, id string) domain.CatalogItem {
	return domain.CatalogItem{
		ID:          id,
		Kind:        kind,
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Price:       domain.Round2(in.Price),
		Unit:        strings.TrimSpace(in.Unit),
		Sizes:       trimAll(in.Sizes),
		Images:      trimAll(in.Images),
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
