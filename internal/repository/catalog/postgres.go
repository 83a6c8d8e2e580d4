package catalog

import (
	"context"

	"tailorshop/internal/domain"
	"tailorshop/internal/repository/pgval"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("catalog_repo")}
}

const itemColumns = `id::text, kind, name, category, description, price::text, unit, sizes, images, created_at, updated_at`

func (r *postgresRepo) List(ctx context.Context, kind domain.CatalogKind) ([]domain.CatalogItem, error) {
	const q = `
SELECT ` + itemColumns + `
FROM catalog_items
WHERE kind = $1
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, string(kind))
	if err != nil {
		r.logger.Error("list", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.CatalogItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.String("kind", string(kind)), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	const q = `
SELECT ` + itemColumns + `
FROM catalog_items
WHERE id = $1::uuid
`
	item, err := scanItem(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		err = pgval.MapError(err)
		if err != domain.ErrNotFound {
			r.logger.Error("get", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return item, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	const q = `
INSERT INTO catalog_items (id, kind, name, category, description, price, unit, sizes, images)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    kind = EXCLUDED.kind,
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    unit = EXCLUDED.unit,
    sizes = EXCLUDED.sizes,
    images = EXCLUDED.images,
    updated_at = now()
RETURNING ` + itemColumns
	sizes := item.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	images := item.Images
	if images == nil {
		images = []string{}
	}
	saved, err := scanItem(r.pool.QueryRow(ctx, q,
		item.ID,
		string(item.Kind),
		item.Name,
		item.Category,
		item.Description,
		pgval.Numeric(item.Price),
		item.Unit,
		sizes,
		images,
	))
	if err != nil {
		r.logger.Error("upsert", zap.String("name", item.Name), zap.Error(err))
		return nil, pgval.MapError(err)
	}
	r.logger.Info("upsert", zap.String("id", saved.ID), zap.String("kind", string(saved.Kind)))
	return saved, nil
}

func (r *postgresRepo) Delete(ctx context.Context, kind domain.CatalogKind, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM catalog_items WHERE kind = $1 AND id = $2::uuid`, string(kind), id)
	if err != nil {
		return pgval.MapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Categories(ctx context.Context, kind domain.CatalogKind) ([]string, error) {
	const q = `
SELECT DISTINCT category
FROM catalog_items
WHERE kind = $1 AND category <> ''
ORDER BY category
`
	rows, err := r.pool.Query(ctx, q, string(kind))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanItem(row pgx.Row) (*domain.CatalogItem, error) {
	var (
		item  domain.CatalogItem
		kind  string
		price string
	)
	if err := row.Scan(
		&item.ID,
		&kind,
		&item.Name,
		&item.Category,
		&item.Description,
		&price,
		&item.Unit,
		&item.Sizes,
		&item.Images,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.Kind = domain.CatalogKind(kind)
	p, err := pgval.ParseNumeric(price)
	if err != nil {
		return nil, err
	}
	item.Price = p
	return &item, nil
}
