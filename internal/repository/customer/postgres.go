package customer

import (
	"context"
	"strings"

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
	return &postgresRepo{pool: pool, logger: logger.Named("customer_repo")}
}

const accountColumns = `id::text, email, password_hash, name, phone, address, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, a domain.Account) (*domain.Account, error) {
	const q = `
INSERT INTO customers (email, password_hash, name, phone, address)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + accountColumns
	return r.scanAccount(r.pool.QueryRow(ctx, q,
		strings.ToLower(a.Email),
		a.PasswordHash,
		a.Name,
		a.Phone,
		a.Address,
	))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `
SELECT ` + accountColumns + `
FROM customers
WHERE lower(email) = lower($1)
LIMIT 1
`
	return r.scanAccount(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const q = `
SELECT ` + accountColumns + `
FROM customers
WHERE id = $1::uuid
LIMIT 1
`
	return r.scanAccount(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) UpdateProfile(ctx context.Context, id string, p Profile) (*domain.Account, error) {
	const q = `
UPDATE customers
SET name = $2, phone = $3, address = $4, updated_at = now()
WHERE id = $1::uuid
RETURNING ` + accountColumns
	return r.scanAccount(r.pool.QueryRow(ctx, q, id, p.Name, p.Phone, p.Address))
}

func (r *postgresRepo) scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.Name,
		&a.Phone,
		&a.Address,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		mapped := pgval.MapError(err)
		if mapped == err {
			r.logger.Error("scan account", zap.Error(err))
		}
		return nil, mapped
	}
	return &a, nil
}
