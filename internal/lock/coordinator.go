package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/logger"
)

const (
	defaultTries   = 5
	defaultBackoff = 100 * time.Millisecond
	defaultTTL     = 3 * time.Second

	// Budget for releasing the lease after the request context is gone
	releaseTimeout = time.Second

	keyPrefix = "account-lock:"
)

// Coordinator configuration with sensible defaults
type Config struct {
	// Number of acquisition attempts before giving up
	Tries int

	// Pause between attempts
	Backoff time.Duration

	// Lease lifetime; must comfortably exceed one ledger operation so that
	// expiry stays an escape valve for crashed holders, not the common path
	TTL time.Duration
}

// Coordinator guarantees at most one in-flight balance mutation per account
// number. It is not re-entrant: a holder must not reacquire its own key.
type Coordinator struct {
	locker  Locker
	tries   int
	backoff time.Duration
	ttl     time.Duration
	logger  logger.Logger
}

func NewCoordinator(cfg Config, locker Locker, l logger.Logger) *Coordinator {
	if cfg.Tries == 0 {
		cfg.Tries = defaultTries
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Coordinator{
		locker:  locker,
		tries:   cfg.Tries,
		backoff: cfg.Backoff,
		ttl:     cfg.TTL,
		logger:  l,
	}
}

// WithAccountLock runs fn while holding the lock for accountNumber and
// releases it on every exit path. If the lock can't be acquired within the
// retry budget it returns apperrors.ErrLockUnavailable without running fn;
// the coordinator itself never retries the operation.
func (c *Coordinator) WithAccountLock(ctx context.Context, accountNumber string, fn func(ctx context.Context) error) error {
	key := keyPrefix + accountNumber

	token, err := c.acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("account %q: %w", accountNumber, err)
	}

	defer func() {
		// Release with a fresh context: the request context may be done
		// already and the lease should not wait for TTL expiry.
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()

		if err := c.locker.Release(releaseCtx, key, token); err != nil {
			c.logger.Warn("account lock release failed, lease will expire by TTL", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}

func (c *Coordinator) acquire(ctx context.Context, key string) (string, error) {
	for attempt := 0; attempt < c.tries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		token, ok, err := c.locker.TryAcquire(ctx, key, c.ttl)
		if err != nil {
			return "", fmt.Errorf("lock backend: %w", err)
		}
		if ok {
			return token, nil
		}
	}

	return "", apperrors.ErrLockUnavailable
}
