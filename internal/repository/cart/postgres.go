package cart

import (
	"context"
	"fmt"

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

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("cart_repo")}
}

const selectLines = `
SELECT item_id, name, unit_price::text, quantity, fulfillment_tag, category, size, image
FROM cart_lines
WHERE owner_id = $1
ORDER BY position
`

func (r *postgresRepo) Load(ctx context.Context, owner string) ([]domain.CartItem, error) {
	rows, err := r.pool.Query(ctx, selectLines, owner)
	if err != nil {
		return nil, err
	}
	return collectLines(rows)
}

func (r *postgresRepo) Update(ctx context.Context, owner string, fn Mutation) ([]domain.CartItem, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const upsertCart = `
INSERT INTO carts (owner_id) VALUES ($1)
ON CONFLICT (owner_id) DO UPDATE SET updated_at = now()
`
	if _, err := tx.Exec(ctx, upsertCart, owner); err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT owner_id FROM carts WHERE owner_id = $1 FOR UPDATE`, owner); err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}

	rows, err := tx.Query(ctx, selectLines, owner)
	if err != nil {
		return nil, err
	}
	current, err := collectLines(rows)
	if err != nil {
		return nil, err
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE owner_id = $1`, owner); err != nil {
		return nil, fmt.Errorf("delete lines: %w", err)
	}
	const insertLine = `
INSERT INTO cart_lines (owner_id, position, item_id, name, unit_price, quantity, fulfillment_tag, category, size, image)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	for i, it := range next {
		if _, err := tx.Exec(ctx, insertLine,
			owner, i, it.ID, it.Name, pgval.Numeric(it.UnitPrice), it.Quantity,
			it.FulfillmentTag, it.Category, it.Size, it.Image,
		); err != nil {
			return nil, fmt.Errorf("insert line %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Debug("cart updated", zap.String("owner", owner), zap.Int("lines", len(next)))
	if next == nil {
		next = []domain.CartItem{}
	}
	return next, nil
}

func (r *postgresRepo) Clear(ctx context.Context, owner string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE owner_id = $1`, owner)
	return err
}

func collectLines(rows pgx.Rows) ([]domain.CartItem, error) {
	defer rows.Close()
	items := []domain.CartItem{}
	for rows.Next() {
		var (
			it    domain.CartItem
			price string
		)
		if err := rows.Scan(&it.ID, &it.Name, &price, &it.Quantity, &it.FulfillmentTag, &it.Category, &it.Size, &it.Image); err != nil {
			return nil, err
		}
		p, err := pgval.ParseNumeric(price)
		if err != nil {
			return nil, err
		}
		it.UnitPrice = p
		items = append(items, it)
	}
	return items, rows.Err()
}
