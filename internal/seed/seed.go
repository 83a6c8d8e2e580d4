// Package seed loads demo catalog data from YAML.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"tailorshop/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ItemWriter persists catalog items.
type ItemWriter interface {
	Import(ctx context.Context, items []domain.CatalogItem) (int, error)
}

type itemSeed struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Unit        string   `yaml:"unit"`
	Sizes       []string `yaml:"sizes"`
	Images      []string `yaml:"images"`
}

type file struct {
	Laundry    []itemSeed `yaml:"laundry"`
	Unstitched []itemSeed `yaml:"unstitched"`
}

// Parse decodes a seed document into catalog items.
func Parse(r io.Reader) ([]domain.CatalogItem, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(f.Laundry)+len(f.Unstitched))
	for _, group := range []struct {
		kind  domain.CatalogKind
		seeds []itemSeed
	}{
		{domain.KindLaundry, f.Laundry},
		{domain.KindUnstitched, f.Unstitched},
	} {
		for _, s := range group.seeds {
			item, err := s.item(group.kind)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func (s itemSeed) item(kind domain.CatalogKind) (domain.CatalogItem, error) {
	price := decimal.Zero
	if s.Price != "" {
		p, err := decimal.NewFromString(s.Price)
		if err != nil {
			return domain.CatalogItem{}, fmt.Errorf("seed %q: invalid price %q", s.Name, s.Price)
		}
		price = domain.Round2(p)
	}
	item := domain.CatalogItem{
		ID:          s.ID,
		Kind:        kind,
		Name:        s.Name,
		Category:    s.Category,
		Description: s.Description,
		Price:       price,
		Unit:        s.Unit,
		Sizes:       s.Sizes,
		Images:      s.Images,
	}
	if err := item.Validate(); err != nil {
		return domain.CatalogItem{}, fmt.Errorf("seed %q: %w", s.Name, err)
	}
	return item, nil
}

// Apply writes the items in r, or the bundled demo catalog when r is nil.
// Items carry fixed ids so repeated runs update in place.
func Apply(ctx context.Context, w ItemWriter, r io.Reader) (int, error) {
	var (
		items []domain.CatalogItem
		err   error
	)
	if r == nil {
		items, err = Parse(bytes.NewReader(defaultCatalog))
	} else {
		items, err = Parse(r)
	}
	if err != nil {
		return 0, err
	}
	return w.Import(ctx, items)
}
