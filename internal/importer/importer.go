// Package importer loads catalog items from CSV exports.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"tailorshop/internal/domain"

	"github.com/shopspring/decimal"
)

// ItemWriter persists a batch of catalog items.
type ItemWriter interface {
	Import(ctx context.Context, items []domain.CatalogItem) (int, error)
}

// CSVImporter reads rows of id,kind,name,category,price,unit,sizes,images,description.
// A row without a name continues the previous item and only adds images.
// Sizes and images are separated by semicolons.
type CSVImporter struct {
	reader *csv.Reader
	writer ItemWriter
	kind   domain.CatalogKind
}

// NewCSVImporter builds an importer. kind is used for rows with an empty kind column.
func NewCSVImporter(r io.Reader, writer ItemWriter, kind domain.CatalogKind) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, writer: writer, kind: kind}
}

// Run parses every row and writes the items in file order.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("read headers: missing name column")
	}

	var items []domain.CatalogItem
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		name := pick(record, index, "name")
		images := split(pick(record, index, "images"))
		if name == "" {
			// Continuation rows carry extra images for the item above.
			if len(items) > 0 && len(images) > 0 {
				last := &items[len(items)-1]
				last.Images = append(last.Images, images...)
			}
			continue
		}

		item, err := i.parse(record, index, name, images)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return 0, nil
	}
	return i.writer.Import(ctx, items)
}

func (i *CSVImporter) parse(record []string, index map[string]int, name string, images []string) (domain.CatalogItem, error) {
	kind := i.kind
	if raw := pick(record, index, "kind"); raw != "" {
		k, err := domain.ParseCatalogKind(raw)
		if err != nil {
			return domain.CatalogItem{}, err
		}
		kind = k
	}
	if kind == "" {
		return domain.CatalogItem{}, domain.NewValidationError("kind", "catalog kind required")
	}

	price := decimal.Zero
	if raw := pick(record, index, "price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.CatalogItem{}, domain.NewValidationError("price", fmt.Sprintf("invalid price %q", raw))
		}
		price = domain.Round2(p)
	}

	id := pick(record, index, "id")
	if id != "" && len(id) != 36 {
		return domain.CatalogItem{}, domain.NewValidationError("id", fmt.Sprintf("invalid id %q", id))
	}

	return domain.CatalogItem{
		ID:          id,
		Kind:        kind,
		Name:        name,
		Category:    pick(record, index, "category"),
		Description: pick(record, index, "description"),
		Price:       price,
		Unit:        pick(record, index, "unit"),
		Sizes:       split(pick(record, index, "sizes")),
		Images:      images,
	}, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func split(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
