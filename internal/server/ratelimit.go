package server

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedSenders caps the limiter map to prevent memory exhaustion
// from attackers rotating sender ids.
const maxTrackedSenders = 4096

// SenderLimiter rate-limits inbound webhook traffic per sender id.
// Safe for concurrent use.
type SenderLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewSenderLimiter creates a limiter allowing rpm requests per minute per
// sender, with a small burst. rpm <= 0 disables limiting.
func NewSenderLimiter(rpm int) *SenderLimiter {
	if rpm <= 0 {
		return nil
	}
	return &SenderLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(rpm) / 60.0),
		burst:    max(rpm/6, 1),
	}
}

// Allow reports whether the sender is within its rate. A nil limiter
// allows everything.
func (l *SenderLimiter) Allow(senderID string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	lim, ok := l.limiters[senderID]
	if !ok {
		if len(l.limiters) >= maxTrackedSenders {
			// Hard eviction via map iteration order; stale limiters
			// re-create themselves with a full burst, which is acceptable.
			for k := range l.limiters {
				delete(l.limiters, k)
				break
			}
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[senderID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
