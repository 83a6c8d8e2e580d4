package customer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type expiredTokens interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper drops revocation records once the tokens they block have expired.
type Sweeper struct {
	repo     expiredTokens
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewSweeper(repo expiredTokens, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{repo: repo, interval: interval, logger: logger, now: time.Now}
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Warn("sweep revoked tokens", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.logger.Info("swept revoked tokens", zap.Int64("count", n))
	}
	return n
}
