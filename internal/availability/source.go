package availability

import (
	"context"
	"sync"
	"time"

	"github.com/timfee/scheduler-sub001/internal/calendar"
	apperrors "github.com/timfee/scheduler-sub001/pkg/errors"
	"github.com/timfee/scheduler-sub001/pkg/logger"
	"github.com/timfee/scheduler-sub001/pkg/model"
)

// ClientProvider resolves the currently configured booking calendar. A nil
// client with a nil error means no calendar is connected.
type ClientProvider interface {
	BookingClient(ctx context.Context) (calendar.Client, *model.Integration, error)
}

type cacheEntry struct {
	busy      []model.BusyInterval
	fetchedAt time.Time
}

// Source fetches busy intervals through the calendar client, memoizing each
// (from, to) range for a short TTL so repeated availability reads do not
// hammer the upstream calendar. A successful booking invalidates the whole
// cache so the next read reflects the new event immediately.
type Source struct {
	provider ClientProvider
	ttl      time.Duration
	log      *logger.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
	gen   uint64
	now   func() time.Time
}

func NewSource(provider ClientProvider, ttl time.Duration, log *logger.Logger) *Source {
	return &Source{
		provider: provider,
		ttl:      ttl,
		log:      log,
		cache:    make(map[string]cacheEntry),
		now:      time.Now,
	}
}

// BusyTimes returns the busy intervals intersecting [from, to). When no
// calendar is configured it fails open to an empty list; upstream errors are
// surfaced as typed errors and never retried here.
func (s *Source) BusyTimes(ctx context.Context, from, to time.Time) ([]model.BusyInterval, error) {
	client, _, err := s.provider.BookingClient(ctx)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	if client == nil {
		return nil, nil
	}

	key := from.UTC().Format(time.RFC3339) + "/" + to.UTC().Format(time.RFC3339)

	s.mu.Lock()
	entry, ok := s.cache[key]
	fresh := ok && s.now().Sub(entry.fetchedAt) < s.ttl
	gen := s.gen
	s.mu.Unlock()

	if fresh {
		return entry.busy, nil
	}

	busy, err := client.ListBusyTimes(ctx, from, to)
	if err != nil {
		s.log.Error("Busy-time fetch failed", "from", from, "to", to, "error", err)
		return nil, apperrors.Upstream(err)
	}

	// A fetch that started before an Invalidate carries pre-invalidation
	// data and must not repopulate the cache.
	s.mu.Lock()
	if s.gen == gen {
		s.cache[key] = cacheEntry{busy: busy, fetchedAt: s.now()}
	}
	s.mu.Unlock()

	return busy, nil
}

// Invalidate drops every cached range and fences out in-flight fetches.
// Called after a successful booking.
func (s *Source) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.cache = make(map[string]cacheEntry)
	s.mu.Unlock()
}
