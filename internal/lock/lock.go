// Package lock provides per-account mutual exclusion over a shared lock
// backend. The Locker interface is the thin backend adapter; Coordinator adds
// the retry policy and scoped acquisition the rest of the service uses.
package lock

import (
	"context"
	"time"
)

// Locker grants time-bounded exclusive leases on string keys.
//
// TryAcquire never blocks waiting for a busy key: it reports ok=false and the
// caller decides whether to retry. A successful acquisition returns an opaque
// token that must be presented back on Release, so a lease that expired and
// was re-acquired by someone else can't be released by the previous holder.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key string, token string) error
}
