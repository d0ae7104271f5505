package server

import (
	"fmt"
	"testing"
)

func TestSenderLimiterDisabled(t *testing.T) {
	l := NewSenderLimiter(0)
	if l != nil {
		t.Fatal("rpm 0 should return a nil (pass-through) limiter")
	}
	for i := 0; i < 1000; i++ {
		if !l.Allow("anyone") {
			t.Fatal("nil limiter must allow everything")
		}
	}
}

func TestSenderLimiterBurstThenThrottle(t *testing.T) {
	l := NewSenderLimiter(60) // 1 rps, burst 10

	allowed := 0
	for i := 0; i < 100; i++ {
		if l.Allow("u") {
			allowed++
		}
	}
	if allowed == 0 || allowed == 100 {
		t.Fatalf("allowed %d of 100 instant requests, want burst-then-throttle", allowed)
	}
}

func TestSenderLimiterIsolatesSenders(t *testing.T) {
	l := NewSenderLimiter(60)

	// Exhaust one sender's burst.
	for i := 0; i < 50; i++ {
		l.Allow("noisy")
	}
	if l.Allow("noisy") {
		t.Fatal("noisy sender should be throttled")
	}
	if !l.Allow("quiet") {
		t.Fatal("an unrelated sender must not be throttled")
	}
}

func TestSenderLimiterBoundsTrackedSenders(t *testing.T) {
	l := NewSenderLimiter(60)

	for i := 0; i < maxTrackedSenders+100; i++ {
		l.Allow(fmt.Sprintf("sender-%d", i))
	}

	l.mu.Lock()
	n := len(l.limiters)
	l.mu.Unlock()
	if n > maxTrackedSenders {
		t.Fatalf("tracked %d senders, cap is %d", n, maxTrackedSenders)
	}
}
