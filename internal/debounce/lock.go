package debounce

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/turngate/internal/kv"
)

// Lock is the per-user flush lock: a TTL-bounded advisory mutex held for
// the duration of the drain-and-reply critical section. No owner identity
// is recorded, so any holder may release it; a worker that stalls past the
// TTL can have its lock taken over by a second worker, which then
// re-checks the timer before doing anything. A crash-orphaned lock
// self-expires via the TTL.
type Lock struct {
	store kv.Store
	ttl   time.Duration
}

// NewLock creates a flush lock with the given lease TTL. The TTL should
// comfortably exceed expected reply latency.
func NewLock(store kv.Store, ttl time.Duration) *Lock {
	return &Lock{store: store, ttl: ttl}
}

// TryAcquire attempts to take the user's flush lock without blocking.
// Returns false when another worker holds it — expected and frequent
// under concurrent deferred checks, not an error.
func (l *Lock) TryAcquire(ctx context.Context, userID string) (bool, error) {
	ok, err := l.store.SetNX(ctx, lockKey(userID), "1", l.ttl)
	if err != nil {
		return false, fmt.Errorf("lock acquire for %s: %w", userID, err)
	}
	return ok, nil
}

// Release frees the user's flush lock. Failure to release is logged, not
// returned: the TTL bounds the damage and callers run Release deferred.
func (l *Lock) Release(ctx context.Context, userID string) {
	if err := l.store.Delete(ctx, lockKey(userID)); err != nil {
		slog.Warn("flush lock release failed, waiting out TTL", "user_id", userID, "error", err)
	}
}
