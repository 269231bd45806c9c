package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterSlidingWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(15*time.Minute, 5).WithClock(func() time.Time { return now })

	for i := 0; i < 5; i++ {
		_, ok := l.Allow("1.2.3.4")
		require.True(t, ok, "attempt %d", i+1)
		now = now.Add(time.Minute)
	}

	retry, ok := l.Allow("1.2.3.4")
	require.False(t, ok)
	require.Equal(t, 15*time.Minute, retry)

	// other clients are unaffected
	_, ok = l.Allow("5.6.7.8")
	require.True(t, ok)

	// the first attempt (12:00) leaves the window after 12:15
	now = time.Date(2025, 1, 1, 12, 15, 30, 0, time.UTC)
	_, ok = l.Allow("1.2.3.4")
	require.True(t, ok)
	_, ok = l.Allow("1.2.3.4")
	require.False(t, ok)
}

func TestRejectedAttemptsAreNotRecorded(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(time.Hour, 1).WithClock(func() time.Time { return now })

	_, ok := l.Allow("k")
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		now = now.Add(time.Minute)
		_, ok = l.Allow("k")
		require.False(t, ok)
	}

	now = time.Date(2025, 1, 1, 1, 0, 1, 0, time.UTC)
	_, ok = l.Allow("k")
	require.True(t, ok)
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(time.Minute, 3).WithClock(func() time.Time { return now })
	l.Allow("a")
	l.Allow("b")
	require.Equal(t, 2, l.keys())

	now = now.Add(2 * time.Minute)
	l.Allow("b")
	l.Sweep()
	require.Equal(t, 1, l.keys())
}

func (l *Limiter) keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}
