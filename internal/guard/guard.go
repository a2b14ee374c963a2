// Package guard provides the in-process mutual-exclusion and rate-limiting
// layer in front of the booking operation: at most one live lock per slot
// key, a sliding attempt window per requester, and garbage collection of
// stale entries. The guarantees hold within a single serving process; a
// multi-instance deployment must back the same interface with a shared store
// offering conditional puts.
package guard

import (
	"sync"
	"time"

	"github.com/timfee/scheduler-sub001/pkg/logger"
)

type attemptWindow struct {
	count   int
	started time.Time
}

type Options struct {
	// MaxAttempts per identity within Window before Allow rejects.
	MaxAttempts int
	Window      time.Duration

	// LockTTL is the staleness threshold after which a slot lock is treated
	// as leaked by a request that never finished.
	LockTTL time.Duration

	// SweepInterval drives the background sweep ticker.
	SweepInterval time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time

	Log *logger.Logger
}

// Guard owns the slot-lock table and the rate-limit table. Both live behind
// one mutex so acquire-check-and-set is a single atomic step with respect to
// concurrent bookings: of two simultaneous TryAcquire calls for the same key,
// exactly one wins.
type Guard struct {
	mu       sync.Mutex
	locks    map[string]time.Time
	attempts map[string]*attemptWindow

	maxAttempts int
	window      time.Duration
	lockTTL     time.Duration

	now    func() time.Time
	log    *logger.Logger
	stopCh chan struct{}
}

func New(opts Options) *Guard {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	g := &Guard{
		locks:       make(map[string]time.Time),
		attempts:    make(map[string]*attemptWindow),
		maxAttempts: opts.MaxAttempts,
		window:      opts.Window,
		lockTTL:     opts.LockTTL,
		now:         opts.Now,
		log:         opts.Log,
		stopCh:      make(chan struct{}),
	}

	if opts.SweepInterval > 0 {
		go g.sweepLoop(opts.SweepInterval)
	}

	return g
}

// TryAcquire records an exclusive lock for the slot key if no unexpired lock
// exists, in one critical section. It also sweeps opportunistically so
// low-traffic deployments self-heal without waiting for the ticker.
func (g *Guard) TryAcquire(slotKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweepLocked(now)

	if acquiredAt, held := g.locks[slotKey]; held && now.Sub(acquiredAt) < g.lockTTL {
		return false
	}

	g.locks[slotKey] = now
	return true
}

// Release removes the lock unconditionally. Safe to call for a key that was
// already swept.
func (g *Guard) Release(slotKey string) {
	g.mu.Lock()
	delete(g.locks, slotKey)
	g.mu.Unlock()
}

// Allow implements check-and-record for the requester identity: it rejects
// once the identity has made MaxAttempts within the current window, and
// otherwise counts the attempt. The window restarts when wall-clock time
// moves past it, so a requester locked out now succeeds after it elapses.
func (g *Guard) Allow(identity string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweepLocked(now)

	w, ok := g.attempts[identity]
	if !ok || now.Sub(w.started) >= g.window {
		g.attempts[identity] = &attemptWindow{count: 1, started: now}
		return true
	}

	if w.count >= g.maxAttempts {
		return false
	}

	w.count++
	return true
}

// Reset clears both tables. Test teardown only.
func (g *Guard) Reset() {
	g.mu.Lock()
	g.locks = make(map[string]time.Time)
	g.attempts = make(map[string]*attemptWindow)
	g.mu.Unlock()
}

// Stop terminates the background sweep loop.
func (g *Guard) Stop() {
	close(g.stopCh)
}

func (g *Guard) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.mu.Lock()
			g.sweepLocked(g.now())
			g.mu.Unlock()
		case <-g.stopCh:
			return
		}
	}
}

// sweepLocked removes locks past the staleness threshold and attempt windows
// that fully elapsed. Callers must hold g.mu.
func (g *Guard) sweepLocked(now time.Time) {
	for key, acquiredAt := range g.locks {
		if now.Sub(acquiredAt) >= g.lockTTL {
			delete(g.locks, key)
			if g.log != nil {
				g.log.Warn("Reclaimed stale slot lock", "slot_key", key, "held_for", now.Sub(acquiredAt).String())
			}
		}
	}

	for identity, w := range g.attempts {
		if now.Sub(w.started) >= g.window {
			delete(g.attempts, identity)
		}
	}
}
