package debounce

import (
	"context"
	"fmt"
	"time"

	"github.com/nextlevelbuilder/turngate/internal/kv"
)

// Deduper rejects redelivery of an already-seen provider message id within
// the retention window.
type Deduper struct {
	store     kv.Store
	retention time.Duration
}

// NewDeduper creates a dedup guard with the given retention window.
func NewDeduper(store kv.Store, retention time.Duration) *Deduper {
	return &Deduper{store: store, retention: retention}
}

// Accept returns true iff this message id has not been seen within the
// retention window, atomically marking it seen. A store failure is
// returned as an error and must never be read as "duplicate".
func (d *Deduper) Accept(ctx context.Context, providerMessageID string) (bool, error) {
	ok, err := d.store.SetNX(ctx, dedupKey(providerMessageID), "1", d.retention)
	if err != nil {
		return false, fmt.Errorf("dedup check %s: %w", providerMessageID, err)
	}
	return ok, nil
}
