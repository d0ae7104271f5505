package debounce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nextlevelbuilder/turngate/internal/bus"
	"github.com/nextlevelbuilder/turngate/internal/kv"
)

// Buffer is the per-user ordered queue of messages awaiting coalescing.
// Entries are stored as JSON in a store list whose TTL is refreshed on
// every append, so a buffer abandoned mid-window self-expires.
type Buffer struct {
	store     kv.Store
	retention time.Duration
}

// NewBuffer creates a turn buffer whose lists expire after retention.
func NewBuffer(store kv.Store, retention time.Duration) *Buffer {
	return &Buffer{store: store, retention: retention}
}

// Append adds a message to the user's buffer.
func (b *Buffer) Append(ctx context.Context, userID string, msg bus.InboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal buffered message: %w", err)
	}
	if err := b.store.RPush(ctx, bufKey(userID), string(data), b.retention); err != nil {
		return fmt.Errorf("buffer append for %s: %w", userID, err)
	}
	return nil
}

// Drain atomically pops the user's entire buffer and returns the messages
// sorted ascending by ReceivedAt. Store insertion order is not trusted,
// but the sort is stable so same-timestamp entries keep pop order.
// Draining an empty buffer returns an empty slice, not an error.
func (b *Buffer) Drain(ctx context.Context, userID string) ([]bus.InboundMessage, error) {
	raw, err := b.store.PopAll(ctx, bufKey(userID))
	if err != nil {
		return nil, fmt.Errorf("buffer drain for %s: %w", userID, err)
	}

	msgs := make([]bus.InboundMessage, 0, len(raw))
	for _, item := range raw {
		var msg bus.InboundMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			// A corrupt entry is dropped rather than wedging the user.
			slog.Warn("dropping undecodable buffer entry", "user_id", userID, "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].ReceivedAt < msgs[j].ReceivedAt
	})
	return msgs, nil
}
