package chat

import (
	"sync"
	"time"
)

// Per-user message budget for the assistant.
const (
	messageRateLimit  = 20
	messageRateWindow = time.Minute
)

// Limiter bounds how fast a key may send messages. Check consumes one slot
// when allowed.
type Limiter interface {
	Check(key string) (allowed bool, remaining int, resetAt time.Time)
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a fixed-window in-memory limiter. Counters reset when the
// window elapses and on process restart, which is acceptable for a chat
// budget.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	period  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter constructs a limiter allowing max hits per period.
func NewMemoryLimiter(max int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		max:     max,
		period:  period,
		now:     time.Now,
	}
}

// Check consumes one slot for key if the budget allows it.
func (l *MemoryLimiter) Check(key string) (bool, int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(l.period)}
		l.windows[key] = w
		return true, l.max - 1, w.resetAt
	}
	if w.count >= l.max {
		return false, 0, w.resetAt
	}
	w.count++
	return true, l.max - w.count, w.resetAt
}

// Prune drops expired windows so the map does not grow unbounded.
func (l *MemoryLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}
