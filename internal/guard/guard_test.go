package guard

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestGuard(clk *fakeClock) *Guard {
	return New(Options{
		MaxAttempts: 3,
		Window:      time.Minute,
		LockTTL:     2 * time.Minute,
		Now:         clk.Now,
	})
}

func TestTryAcquireExclusive(t *testing.T) {
	g := newTestGuard(newFakeClock())

	if !g.TryAcquire("2024-01-15:10:00") {
		t.Fatal("first acquire should succeed")
	}
	if g.TryAcquire("2024-01-15:10:00") {
		t.Fatal("second acquire of a held key should fail")
	}
	if !g.TryAcquire("2024-01-15:10:30") {
		t.Fatal("a different key must not be blocked")
	}
}

func TestTryAcquireConcurrentSingleWinner(t *testing.T) {
	g := New(Options{
		MaxAttempts: 100,
		Window:      time.Minute,
		LockTTL:     2 * time.Minute,
	})

	const goroutines = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire("2024-01-15:10:00") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	g := newTestGuard(newFakeClock())

	if !g.TryAcquire("2024-01-15:10:00") {
		t.Fatal("first acquire should succeed")
	}
	g.Release("2024-01-15:10:00")
	if !g.TryAcquire("2024-01-15:10:00") {
		t.Fatal("acquire after release should succeed")
	}

	// Releasing a key that is not held must not panic or block.
	g.Release("2024-01-15:23:30")
}

func TestStaleLockReclaimed(t *testing.T) {
	clk := newFakeClock()
	g := newTestGuard(clk)

	if !g.TryAcquire("2024-01-15:10:00") {
		t.Fatal("first acquire should succeed")
	}

	clk.Advance(time.Minute)
	if g.TryAcquire("2024-01-15:10:00") {
		t.Fatal("lock inside its TTL must stay held")
	}

	clk.Advance(90 * time.Second)
	if !g.TryAcquire("2024-01-15:10:00") {
		t.Fatal("lock past its TTL must be reclaimable")
	}
}

func TestAllowEnforcesAttemptLimit(t *testing.T) {
	g := newTestGuard(newFakeClock())

	for i := 0; i < 3; i++ {
		if !g.Allow("alice@example.com") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if g.Allow("alice@example.com") {
		t.Fatal("attempt over the limit must be rejected")
	}
	if !g.Allow("bob@example.com") {
		t.Fatal("a different identity must not be affected")
	}
}

func TestAllowWindowExpiry(t *testing.T) {
	clk := newFakeClock()
	g := newTestGuard(clk)

	for i := 0; i < 3; i++ {
		g.Allow("alice@example.com")
	}
	if g.Allow("alice@example.com") {
		t.Fatal("limit should be hit inside the window")
	}

	clk.Advance(61 * time.Second)
	if !g.Allow("alice@example.com") {
		t.Fatal("a fresh window should admit the identity again")
	}
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	clk := newFakeClock()
	g := newTestGuard(clk)

	for i := 0; i < 10; i++ {
		g.TryAcquire(fmt.Sprintf("2024-01-15:%02d:00", i))
		g.Allow(fmt.Sprintf("user%d@example.com", i))
	}

	clk.Advance(3 * time.Minute)
	g.TryAcquire("2024-01-16:09:00")

	g.mu.Lock()
	locks, attempts := len(g.locks), len(g.attempts)
	g.mu.Unlock()

	if locks != 1 {
		t.Fatalf("expected only the fresh lock to survive the sweep, got %d", locks)
	}
	if attempts != 0 {
		t.Fatalf("expected elapsed attempt windows to be swept, got %d", attempts)
	}
}

func TestBackgroundSweep(t *testing.T) {
	g := New(Options{
		MaxAttempts:   3,
		Window:        5 * time.Millisecond,
		LockTTL:       5 * time.Millisecond,
		SweepInterval: 10 * time.Millisecond,
	})
	defer g.Stop()

	g.TryAcquire("2024-01-15:10:00")
	g.Allow("alice@example.com")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		g.mu.Lock()
		empty := len(g.locks) == 0 && len(g.attempts) == 0
		g.mu.Unlock()
		if empty {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background sweep never reclaimed expired entries")
}

func TestReset(t *testing.T) {
	g := newTestGuard(newFakeClock())

	g.TryAcquire("2024-01-15:10:00")
	for i := 0; i < 3; i++ {
		g.Allow("alice@example.com")
	}

	g.Reset()

	if !g.TryAcquire("2024-01-15:10:00") {
		t.Fatal("lock table should be empty after reset")
	}
	if !g.Allow("alice@example.com") {
		t.Fatal("attempt table should be empty after reset")
	}
}
