package wallet

import (
	"context"

	"tripwallet/internal/models"
)

// NoopBalanceCache always misses. Used when Redis is disabled.
type NoopBalanceCache struct{}

func (NoopBalanceCache) GetBalance(context.Context, string) (int64, bool, error) {
	return 0, false, nil
}
func (NoopBalanceCache) SetBalance(context.Context, string, int64, int64) (bool, error) {
	return false, nil
}
func (NoopBalanceCache) InvalidateBalance(context.Context, string) error { return nil }

func (s *service) cachedBalance(ctx context.Context, userID string) (int64, bool) {
	bal, found, err := s.cache.GetBalance(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("balance cache read failed")
		return 0, false
	}
	if found {
		s.metrics.RecordCacheHit()
	} else {
		s.metrics.RecordCacheMiss()
	}
	return bal, found
}

// fillBalance caches a row read from the database. A mutation that committed
// after the read has a higher version and is not overwritten.
func (s *service) fillBalance(ctx context.Context, row *models.WalletBalance) {
	if _, err := s.cache.SetBalance(ctx, row.UserID, row.Balance, row.Version); err != nil {
		s.logger.WithError(err).WithField("user_id", row.UserID).Warn("balance cache write failed")
	}
}

// publishBalance must run after every committed mutation. If the write fails
// the entry is dropped so readers go back to the database.
func (s *service) publishBalance(ctx context.Context, row *models.WalletBalance) {
	if _, err := s.cache.SetBalance(ctx, row.UserID, row.Balance, row.Version); err != nil {
		s.logger.WithError(err).WithField("user_id", row.UserID).Warn("balance cache write failed")
		s.invalidateBalance(ctx, row.UserID)
	}
}

func (s *service) invalidateBalance(ctx context.Context, userID string) {
	if err := s.cache.InvalidateBalance(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("balance cache invalidation failed")
	}
}
