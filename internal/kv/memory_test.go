package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemorySetNX(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.SetNX(ctx, "k", "v1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = s.SetNX(ctx, "k", "v2", time.Minute)
	if err != nil || ok {
		t.Fatalf("second SetNX = (%v, %v), want (false, nil)", ok, err)
	}

	v, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "v1" {
		t.Errorf("value = %q, losing SetNX must not overwrite", v)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	if _, err := s.SetNX(ctx, "k", "v", 5*time.Second); err != nil {
		t.Fatalf("setnx: %v", err)
	}

	now = now.Add(6 * time.Second)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired Get error = %v, want ErrNotFound", err)
	}

	// The slot frees up for SetNX too.
	ok, err := s.SetNX(ctx, "k", "v2", 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("SetNX after expiry = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestMemorySetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Set(ctx, "k", "v1", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", "v2", time.Minute); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, _ := s.Get(ctx, "k")
	if v != "v2" {
		t.Errorf("value = %q, want v2", v)
	}
}

func TestMemoryDeleteAbsentKey(t *testing.T) {
	if err := NewMemoryStore().Delete(context.Background(), "ghost"); err != nil {
		t.Fatalf("deleting an absent key must not error: %v", err)
	}
}

func TestMemoryListPopAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, v := range []string{"a", "b", "c"} {
		if err := s.RPush(ctx, "l", v, time.Minute); err != nil {
			t.Fatalf("rpush: %v", err)
		}
	}

	got, err := s.PopAll(ctx, "l")
	if err != nil {
		t.Fatalf("popall: %v", err)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("popall = %v, want [a b c] in insertion order", got)
	}

	// The pop must have cleared the list.
	got, err = s.PopAll(ctx, "l")
	if err != nil {
		t.Fatalf("second popall: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("second popall = %v, want empty", got)
	}
}

func TestMemoryListTTLRefreshOnPush(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	if err := s.RPush(ctx, "l", "a", 10*time.Second); err != nil {
		t.Fatalf("rpush: %v", err)
	}

	// A later push must extend the whole list's life.
	now = now.Add(8 * time.Second)
	if err := s.RPush(ctx, "l", "b", 10*time.Second); err != nil {
		t.Fatalf("second rpush: %v", err)
	}

	now = now.Add(9 * time.Second) // 17s after first push, 9s after refresh
	got, err := s.PopAll(ctx, "l")
	if err != nil {
		t.Fatalf("popall: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("popall = %v, refresh must keep earlier entries alive", got)
	}

	// Without a refresh the list expires.
	if err := s.RPush(ctx, "x", "a", 5*time.Second); err != nil {
		t.Fatalf("rpush x: %v", err)
	}
	now = now.Add(6 * time.Second)
	got, err = s.PopAll(ctx, "x")
	if err != nil {
		t.Fatalf("popall x: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expired list returned %v", got)
	}
}
