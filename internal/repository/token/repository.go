package token

import (
	"context"
	"time"
)

// Repository records session tokens revoked before they expire.
type Repository interface {
	Revoke(ctx context.Context, tokenID, subject string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// DeleteExpired drops revocations whose token would have expired anyway.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
