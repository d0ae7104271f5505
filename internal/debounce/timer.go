package debounce

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nextlevelbuilder/turngate/internal/kv"
)

// Timer is the per-user fire-at marker implementing the sliding debounce
// window. Each rearm overwrites the marker in place; only the most recent
// rearm matters. The store TTL (window + grace) is a safety net: a marker
// that is never explicitly cleared expires on its own instead of sticking.
type Timer struct {
	store  kv.Store
	window time.Duration
	grace  time.Duration
	now    func() time.Time
}

// NewTimer creates a coalescing timer with the given window and grace.
func NewTimer(store kv.Store, window, grace time.Duration) *Timer {
	return &Timer{store: store, window: window, grace: grace, now: time.Now}
}

// Rearm resets the user's wake-up point to now + window. A burst of
// messages collapses to one flush scheduled after the last of them.
func (t *Timer) Rearm(ctx context.Context, userID string) error {
	fireAt := t.now().Add(t.window).UnixMilli()
	err := t.store.Set(ctx, timerKey(userID), strconv.FormatInt(fireAt, 10), t.window+t.grace)
	if err != nil {
		return fmt.Errorf("timer rearm for %s: %w", userID, err)
	}
	return nil
}

// IsDue reports whether the user's timer exists and its fire-at has
// passed. An absent marker (cleared or expired) is simply not due.
func (t *Timer) IsDue(ctx context.Context, userID string) (bool, error) {
	v, err := t.store.Get(ctx, timerKey(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("timer check for %s: %w", userID, err)
	}
	fireAt, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false, fmt.Errorf("timer check for %s: bad fire_at %q: %w", userID, v, err)
	}
	return t.now().UnixMilli() >= fireAt, nil
}

// Clear deletes the user's timer marker. Called only after a successful
// drain, so a rearm racing the critical section is not lost.
func (t *Timer) Clear(ctx context.Context, userID string) error {
	if err := t.store.Delete(ctx, timerKey(userID)); err != nil {
		return fmt.Errorf("timer clear for %s: %w", userID, err)
	}
	return nil
}
