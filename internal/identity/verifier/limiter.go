package verifier

import (
	"sync"
	"time"
)

// attemptLimiter is a per-key sliding window counter.
type attemptLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*slidingWindow
}

type slidingWindow struct {
	timestamps []time.Time
}

func newAttemptLimiter(limit int, window time.Duration) *attemptLimiter {
	return &attemptLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*slidingWindow),
	}
}

// allow records an attempt for key if the window has room. When it does
// not, retryAt is the moment the oldest attempt expires.
func (l *attemptLimiter) allow(key string, now time.Time) (allowed bool, retryAt time.Time) {
	if l.limit <= 0 {
		return true, time.Time{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	sw, ok := l.windows[key]
	if !ok {
		sw = &slidingWindow{}
		l.windows[key] = sw
	}
	sw.cleanupExpired(now, l.window)
	if len(sw.timestamps) >= l.limit {
		return false, sw.timestamps[0].Add(l.window)
	}
	sw.timestamps = append(sw.timestamps, now)
	return true, time.Time{}
}

func (sw *slidingWindow) cleanupExpired(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}
