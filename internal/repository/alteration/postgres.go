package alteration

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

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("alteration_repo")}
}

const alterationColumns = `
    id::text, customer_name, customer_address, customer_phone, customer_email,
    note, quantity, shop_no, status, admin_total::text, payment_status, payment_id,
    gateway_order_id, signature, payment_updated_at, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, a domain.Alteration) (*domain.Alteration, error) {
	const q = `
INSERT INTO alterations (customer_name, customer_address, customer_phone, customer_email, note, quantity, shop_no, status, payment_status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + alterationColumns
	created, err := r.scan(r.pool.QueryRow(ctx, q,
		a.Customer.Name,
		a.Customer.Address,
		a.Customer.Phone,
		a.Customer.Email,
		a.Note,
		a.Quantity,
		a.ShopNo,
		string(a.State.Status),
		string(a.State.PaymentStatus),
	))
	if err != nil {
		return nil, err
	}
	r.logger.Info("alteration booked", zap.String("id", created.ID))
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Alteration, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+alterationColumns+` FROM alterations WHERE id = $1::uuid`, id))
}

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]domain.Alteration, error) {
	q := `SELECT ` + alterationColumns + ` FROM alterations`
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

	result := []domain.Alteration{}
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, id string, fn Mutation) (*domain.Alteration, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := r.scan(tx.QueryRow(ctx, `SELECT `+alterationColumns+` FROM alterations WHERE id = $1::uuid FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}

	const q = `
UPDATE alterations SET
    status = $2, admin_total = $3, payment_status = $4, payment_id = $5,
    gateway_order_id = $6, signature = $7, payment_updated_at = $8, updated_at = now()
WHERE id = $1::uuid
RETURNING ` + alterationColumns
	s := current.State
	updated, err := r.scan(tx.QueryRow(ctx, q,
		id,
		string(s.Status),
		pgval.NullNumeric(s.AdminTotal),
		string(s.PaymentStatus),
		s.PaymentID,
		s.GatewayOrderID,
		s.Signature,
		s.PaymentUpdatedAt,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.Alteration, error) {
	var (
		a             domain.Alteration
		status        string
		adminTotal    *string
		paymentStatus string
	)
	err := row.Scan(
		&a.ID,
		&a.Customer.Name,
		&a.Customer.Address,
		&a.Customer.Phone,
		&a.Customer.Email,
		&a.Note,
		&a.Quantity,
		&a.ShopNo,
		&status,
		&adminTotal,
		&paymentStatus,
		&a.State.PaymentID,
		&a.State.GatewayOrderID,
		&a.State.Signature,
		&a.State.PaymentUpdatedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		mapped := pgval.MapError(err)
		if mapped == err {
			r.logger.Error("scan alteration", zap.Error(err))
		}
		return nil, mapped
	}
	if a.State.Status, err = domain.ParseStatus(status); err != nil {
		a.State.Status = domain.StatusPending
	}
	if a.State.PaymentStatus, err = domain.ParsePaymentStatus(paymentStatus); err != nil {
		a.State.PaymentStatus = domain.PaymentPending
	}
	if a.State.AdminTotal, err = pgval.ParseNullNumeric(adminTotal); err != nil {
		return nil, err
	}
	return &a, nil
}
