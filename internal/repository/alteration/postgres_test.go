package alteration

import (
	"context"
	"errors"
	"os"
	"testing"

	"tailorshop/internal/domain"
	"tailorshop/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func TestPostgres_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()
	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE alterations`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	repo := NewPostgres(pool, nil)
	created, err := repo.Create(ctx, domain.Alteration{
		Customer: domain.Customer{Name: "Ravi", Phone: "98765", Email: "ravi@example.com"},
		Quantity: 2,
		State:    domain.GroupState{Status: domain.StatusPending, PaymentStatus: domain.PaymentPending},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.State.AdminTotal != nil || created.Quantity != 2 {
		t.Fatalf("unexpected alteration %+v", created)
	}

	updated, err := repo.Update(ctx, created.ID, func(a *domain.Alteration) error {
		total := decimal.RequireFromString("450.00")
		a.State.AdminTotal = &total
		a.State.Status = domain.StatusAccepted
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.State.Status != domain.StatusAccepted || updated.State.AdminTotal.String() != "450" {
		t.Fatalf("unexpected update %+v", updated.State)
	}

	list, err := repo.List(ctx, Filter{CustomerEmail: "RAVI@example.com"})
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v %+v", err, list)
	}
}

func TestPostgres_MalformedIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()
	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	repo := NewPostgres(pool, nil)
	if _, err := repo.GetByID(ctx, "a1'; --"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID: expected ErrNotFound, got %v", err)
	}
	_, err = repo.Update(ctx, "not-a-uuid", func(*domain.Alteration) error { return nil })
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
}
