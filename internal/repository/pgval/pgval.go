// Package pgval converts between Postgres column values and domain money types.
// Numerics travel as text so no decimal codec needs registering on the pool.
package pgval

import (
	"errors"
	"fmt"

	"tailorshop/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Numeric renders d for a NUMERIC parameter.
func Numeric(d decimal.Decimal) string {
	return domain.Round2(d).StringFixed(2)
}

// NullNumeric renders d, or NULL when d is nil.
func NullNumeric(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := Numeric(*d)
	return &s
}

// ParseNumeric reads a column selected as ::text.
func ParseNumeric(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

// ParseNullNumeric reads a nullable column selected as ::text.
func ParseNullNumeric(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := ParseNumeric(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MapError turns pgx sentinel errors into domain errors.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return domain.ErrAlreadyExists
		case "22P02":
			// invalid_text_representation, e.g. a malformed uuid in a path
			return domain.ErrNotFound
		}
	}
	return err
}

// Str returns the value of a nullable text column or "".
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
