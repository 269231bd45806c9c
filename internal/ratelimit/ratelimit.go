// Package ratelimit is a process-local sliding-window attempt counter.
package ratelimit

import (
	"sync"
	"time"
)

type Limiter struct {
	window time.Duration
	max    int
	now    func() time.Time

	mu       sync.Mutex
	attempts map[string][]time.Time
}

func New(window time.Duration, max int) *Limiter {
	return &Limiter{
		window:   window,
		max:      max,
		now:      time.Now,
		attempts: make(map[string][]time.Time),
	}
}

func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow records an attempt for key unless max attempts already fall inside
// the window. A rejected attempt is not recorded and reports the full window
// as the retry delay.
func (l *Limiter) Allow(key string) (time.Duration, bool) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.attempts[key][:0]
	for _, at := range l.attempts[key] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	if len(recent) >= l.max {
		l.attempts[key] = recent
		return l.window, false
	}
	l.attempts[key] = append(recent, now)
	return 0, true
}

// Sweep forgets keys with no attempts inside the window.
func (l *Limiter) Sweep() {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, times := range l.attempts {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(l.attempts, key)
		}
	}
}
