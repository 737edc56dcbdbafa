package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type lease struct {
	token     string
	expiresAt time.Time
}

// InMemory implements Locker with a process-local map. It serializes callers
// within one process only, which is enough for tests and single-instance runs.
type InMemory struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		leases: make(map[string]lease),
		now:    time.Now,
	}
}

func (l *InMemory) TryAcquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.leases[key]; ok && l.now().Before(held.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	l.leases[key] = lease{token: token, expiresAt: l.now().Add(ttl)}

	return token, true, nil
}

func (l *InMemory) Release(_ context.Context, key string, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Same compare-and-delete rule as the Redis backend
	if held, ok := l.leases[key]; ok && held.token == token {
		delete(l.leases, key)
	}

	return nil
}
