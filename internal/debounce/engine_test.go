package debounce

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/nextlevelbuilder/turngate/internal/bus"
	"github.com/nextlevelbuilder/turngate/internal/kv"
)

func TestDeduperRejectsRedelivery(t *testing.T) {
	ctx := context.Background()
	d := NewDeduper(kv.NewMemoryStore(), time.Hour)

	ok, err := d.Accept(ctx, "wamid.1")
	if err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if !ok {
		t.Fatal("first delivery should be accepted")
	}

	ok, err = d.Accept(ctx, "wamid.1")
	if err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if ok {
		t.Fatal("redelivery of the same message id should be rejected")
	}

	ok, err = d.Accept(ctx, "wamid.2")
	if err != nil {
		t.Fatalf("third accept: %v", err)
	}
	if !ok {
		t.Fatal("a different message id should be accepted")
	}
}

func TestBufferDrainSortsByReceivedAt(t *testing.T) {
	ctx := context.Background()
	b := NewBuffer(kv.NewMemoryStore(), time.Hour)

	// Out-of-order append: store insertion order is not trusted.
	for _, m := range []bus.InboundMessage{
		{ProviderMessageID: "c", ReceivedAt: 3000, Text: "tercero"},
		{ProviderMessageID: "a", ReceivedAt: 1000, Text: "primero"},
		{ProviderMessageID: "b", ReceivedAt: 2000, Text: "segundo"},
	} {
		if err := b.Append(ctx, "521234", m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := b.Drain(ctx, "521234")
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("drained %d messages, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ProviderMessageID != want {
			t.Errorf("position %d: got %q, want %q", i, got[i].ProviderMessageID, want)
		}
	}
}

func TestBufferDrainStableOnTies(t *testing.T) {
	ctx := context.Background()
	b := NewBuffer(kv.NewMemoryStore(), time.Hour)

	for _, id := range []string{"x", "y", "z"} {
		msg := bus.InboundMessage{ProviderMessageID: id, ReceivedAt: 5000}
		if err := b.Append(ctx, "u", msg); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := b.Drain(ctx, "u")
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	for i, want := range []string{"x", "y", "z"} {
		if got[i].ProviderMessageID != want {
			t.Errorf("ties must keep pop order: position %d got %q, want %q", i, got[i].ProviderMessageID, want)
		}
	}
}

func TestBufferDrainEmptyIsNoOp(t *testing.T) {
	ctx := context.Background()
	b := NewBuffer(kv.NewMemoryStore(), time.Hour)

	for i := 0; i < 2; i++ {
		got, err := b.Drain(ctx, "nobody")
		if err != nil {
			t.Fatalf("drain %d: %v", i, err)
		}
		if len(got) != 0 {
			t.Fatalf("drain %d: got %d messages, want 0", i, len(got))
		}
	}
}

func TestTimerRearmSlidesWindow(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	timer := NewTimer(store, 4*time.Second, 5*time.Second)

	base := time.Now()
	now := base
	timer.now = func() time.Time { return now }

	if err := timer.Rearm(ctx, "u"); err != nil {
		t.Fatalf("rearm: %v", err)
	}

	due, err := timer.IsDue(ctx, "u")
	if err != nil {
		t.Fatalf("isdue: %v", err)
	}
	if due {
		t.Fatal("timer must not be due immediately after rearm")
	}

	// A second message 3s in rearms; at base+5s the first window would
	// have fired but the second must not have.
	now = base.Add(3 * time.Second)
	if err := timer.Rearm(ctx, "u"); err != nil {
		t.Fatalf("second rearm: %v", err)
	}

	now = base.Add(5 * time.Second)
	due, err = timer.IsDue(ctx, "u")
	if err != nil {
		t.Fatalf("isdue after slide: %v", err)
	}
	if due {
		t.Fatal("rearm must slide the window past the original fire-at")
	}

	now = base.Add(8 * time.Second)
	due, err = timer.IsDue(ctx, "u")
	if err != nil {
		t.Fatalf("isdue at expiry: %v", err)
	}
	if !due {
		t.Fatal("timer must be due once the slid window elapses")
	}
}

func TestTimerAbsentIsNotDue(t *testing.T) {
	ctx := context.Background()
	timer := NewTimer(kv.NewMemoryStore(), time.Second, time.Second)

	due, err := timer.IsDue(ctx, "ghost")
	if err != nil {
		t.Fatalf("isdue: %v", err)
	}
	if due {
		t.Fatal("absent marker must not be due")
	}
}

func TestTimerClear(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	timer := NewTimer(store, time.Second, time.Second)
	timer.now = func() time.Time { return time.Now().Add(time.Minute) } // force due

	if err := store.Set(ctx, timerKey("u"), strconv.FormatInt(time.Now().UnixMilli(), 10), 0); err != nil {
		t.Fatalf("seed timer: %v", err)
	}
	due, _ := timer.IsDue(ctx, "u")
	if !due {
		t.Fatal("seeded timer should be due")
	}

	if err := timer.Clear(ctx, "u"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	due, err := timer.IsDue(ctx, "u")
	if err != nil {
		t.Fatalf("isdue after clear: %v", err)
	}
	if due {
		t.Fatal("cleared timer must not be due")
	}
}

func TestLockMutualExclusion(t *testing.T) {
	ctx := context.Background()
	lock := NewLock(kv.NewMemoryStore(), time.Minute)

	ok, err := lock.TryAcquire(ctx, "u")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !ok {
		t.Fatal("first acquire should succeed")
	}

	ok, err = lock.TryAcquire(ctx, "u")
	if err != nil {
		t.Fatalf("contended acquire: %v", err)
	}
	if ok {
		t.Fatal("second acquire while held should fail")
	}

	// Different user, independent lock.
	ok, err = lock.TryAcquire(ctx, "other")
	if err != nil {
		t.Fatalf("other acquire: %v", err)
	}
	if !ok {
		t.Fatal("locks must be partitioned by user")
	}

	lock.Release(ctx, "u")
	ok, err = lock.TryAcquire(ctx, "u")
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if !ok {
		t.Fatal("acquire after release should succeed")
	}
}

func TestLockExpiresByTTL(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	lock := NewLock(store, 5*time.Second)
	if ok, _ := lock.TryAcquire(ctx, "u"); !ok {
		t.Fatal("first acquire should succeed")
	}

	// A crash-orphaned lock frees itself once the lease lapses.
	now = now.Add(6 * time.Second)
	ok, err := lock.TryAcquire(ctx, "u")
	if err != nil {
		t.Fatalf("acquire after ttl: %v", err)
	}
	if !ok {
		t.Fatal("expired lock should be acquirable")
	}
}
