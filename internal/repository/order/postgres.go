package order

import (
	"context"
	"encoding/json"
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

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("order_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	items, err := json.Marshal(nonNilItems(o.Items))
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO orders (
    schema_version, customer_name, customer_address, customer_phone, customer_email,
    items, note, total, payment_method,
    laundry_status, laundry_admin_total, laundry_payment_status, laundry_payment_id,
    laundry_gateway_order_id, laundry_signature, laundry_payment_updated_at,
    readymade_status, readymade_admin_total, readymade_payment_status, readymade_payment_id,
    readymade_gateway_order_id, readymade_signature, readymade_payment_updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
RETURNING ` + orderColumns
	args := []any{
		schemaSplit,
		o.Customer.Name, o.Customer.Address, o.Customer.Phone, o.Customer.Email,
		items, o.Note, pgval.Numeric(o.FixedPriceTotal), string(o.PaymentMethod),
	}
	args = append(args, splitArgs(o.Laundry)...)
	args = append(args, splitArgs(o.Readymade)...)

	created, err := r.scan(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		r.logger.Error("create", zap.String("customer_email", o.Customer.Email), zap.Error(err))
		return nil, err
	}
	r.logger.Info("order created", zap.String("id", created.ID), zap.String("total", created.FixedPriceTotal.StringFixed(2)))
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1::uuid`
	return r.scan(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if f.CustomerEmail != "" {
		q += ` WHERE lower(customer_email) = lower($1)`
		args = append(args, f.CustomerEmail)
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		o, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, id string, fn Mutation) (*domain.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := r.scan(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1::uuid FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}

	// Writing the split columns upgrades legacy rows; the unified columns are left for history.
	const q = `
UPDATE orders SET
    schema_version = $2,
    laundry_status = $3, laundry_admin_total = $4, laundry_payment_status = $5, laundry_payment_id = $6,
    laundry_gateway_order_id = $7, laundry_signature = $8, laundry_payment_updated_at = $9,
    readymade_status = $10, readymade_admin_total = $11, readymade_payment_status = $12, readymade_payment_id = $13,
    readymade_gateway_order_id = $14, readymade_signature = $15, readymade_payment_updated_at = $16,
    updated_at = now()
WHERE id = $1::uuid
RETURNING ` + orderColumns
	args := []any{id, schemaSplit}
	args = append(args, splitArgs(current.Laundry)...)
	args = append(args, splitArgs(current.Readymade)...)

	updated, err := r.scan(tx.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.Order, error) {
	stored, err := scanStored(row)
	if err != nil {
		mapped := pgval.MapError(err)
		if mapped == err {
			r.logger.Error("scan order", zap.Error(err))
		}
		return nil, mapped
	}
	o, err := stored.normalize()
	if err != nil {
		r.logger.Error("normalize order", zap.Error(err))
		return nil, err
	}
	return &o, nil
}

func nonNilItems(items []domain.CartItem) []domain.CartItem {
	if items == nil {
		return []domain.CartItem{}
	}
	return items
}
