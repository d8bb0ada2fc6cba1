package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

const keyPrefix = "lock:debtcase:"

// OrderLocker holds a redis lock on one order while a case transition runs.
type OrderLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

func NewOrderLocker(rdb redis.UniversalClient, ttl time.Duration) *OrderLocker {
	return &OrderLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 20),
	}
}

func Key(orderID string) string {
	return keyPrefix + orderID
}

// WithLock runs fn while holding the order's lock. A lock held elsewhere for
// the whole retry window is reported as a state conflict.
func (l *OrderLocker) WithLock(ctx context.Context, orderID string, fn func(ctx context.Context) error) error {
	lk, err := l.client.Obtain(ctx, Key(orderID), l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return domain.NewStateConflict(orderID, "case is being updated by another operator")
	}
	if err != nil {
		return fmt.Errorf("failed to obtain lock: %w", err)
	}

	defer func() {
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.GetLogger().WithError(err).WithFields(logrus.Fields{"order_id": orderID}).Warn("Failed to release order lock")
		}
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()
	return fn(lockCtx)
}

// Noop is used when redis is not configured. The attempt store's latest
// attempt check still rejects lost updates.
type Noop struct{}

func (Noop) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
