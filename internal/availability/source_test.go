package availability

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/timfee/scheduler-sub001/internal/calendar"
	apperrors "github.com/timfee/scheduler-sub001/pkg/errors"
	"github.com/timfee/scheduler-sub001/pkg/logger"
	"github.com/timfee/scheduler-sub001/pkg/model"
)

type stubClient struct {
	listFn   func(ctx context.Context, from, to time.Time) ([]model.BusyInterval, error)
	createFn func(ctx context.Context, req calendar.CreateRequest) (*calendar.Event, error)
}

func (c *stubClient) ListBusyTimes(ctx context.Context, from, to time.Time) ([]model.BusyInterval, error) {
	return c.listFn(ctx, from, to)
}

func (c *stubClient) CreateAppointment(ctx context.Context, req calendar.CreateRequest) (*calendar.Event, error) {
	if c.createFn == nil {
		return nil, errors.New("CreateAppointment not scripted")
	}
	return c.createFn(ctx, req)
}

type stubProvider struct {
	clientFn func(ctx context.Context) (calendar.Client, *model.Integration, error)
}

func (p *stubProvider) BookingClient(ctx context.Context) (calendar.Client, *model.Integration, error) {
	return p.clientFn(ctx)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard})
}

func fixedProvider(client calendar.Client) *stubProvider {
	return &stubProvider{
		clientFn: func(ctx context.Context) (calendar.Client, *model.Integration, error) {
			return client, &model.Integration{ID: "int-1", Provider: "caldav", Booking: true}, nil
		},
	}
}

func TestBusyTimesCachesWithinTTL(t *testing.T) {
	fetches := 0
	client := &stubClient{
		listFn: func(_ context.Context, _, _ time.Time) ([]model.BusyInterval, error) {
			fetches++
			return []model.BusyInterval{{
				Start: time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC),
			}}, nil
		},
	}

	source := NewSource(fixedProvider(client), 5*time.Minute, testLogger())

	from := time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	for i := 0; i < 3; i++ {
		busy, err := source.BusyTimes(context.Background(), from, to)
		if err != nil {
			t.Fatalf("unexpected error on call %d: %v", i+1, err)
		}
		if len(busy) != 1 {
			t.Fatalf("expected one busy interval, got %d", len(busy))
		}
	}

	if fetches != 1 {
		t.Fatalf("expected a single upstream fetch within the TTL, got %d", fetches)
	}
}

func TestBusyTimesRefetchesAfterTTL(t *testing.T) {
	fetches := 0
	client := &stubClient{
		listFn: func(_ context.Context, _, _ time.Time) ([]model.BusyInterval, error) {
			fetches++
			return nil, nil
		},
	}

	source := NewSource(fixedProvider(client), 5*time.Minute, testLogger())

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	source.now = func() time.Time { return now }

	from := time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	if _, err := source.BusyTimes(context.Background(), from, to); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = now.Add(6 * time.Minute)
	if _, err := source.BusyTimes(context.Background(), from, to); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fetches != 2 {
		t.Fatalf("expected a refetch once the entry expired, got %d fetches", fetches)
	}
}

func TestBusyTimesCachesRangesIndependently(t *testing.T) {
	fetches := 0
	client := &stubClient{
		listFn: func(_ context.Context, _, _ time.Time) ([]model.BusyInterval, error) {
			fetches++
			return nil, nil
		},
	}

	source := NewSource(fixedProvider(client), 5*time.Minute, testLogger())

	monday := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	_, _ = source.BusyTimes(context.Background(), monday, tuesday)
	_, _ = source.BusyTimes(context.Background(), tuesday, tuesday.AddDate(0, 0, 1))
	_, _ = source.BusyTimes(context.Background(), monday, tuesday)

	if fetches != 2 {
		t.Fatalf("expected one fetch per distinct range, got %d", fetches)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	fetches := 0
	client := &stubClient{
		listFn: func(_ context.Context, _, _ time.Time) ([]model.BusyInterval, error) {
			fetches++
			return nil, nil
		},
	}

	source := NewSource(fixedProvider(client), 5*time.Minute, testLogger())

	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	_, _ = source.BusyTimes(context.Background(), from, to)
	source.Invalidate()
	_, _ = source.BusyTimes(context.Background(), from, to)

	if fetches != 2 {
		t.Fatalf("expected invalidation to force a refetch, got %d fetches", fetches)
	}
}

func TestInvalidateFencesInFlightFetch(t *testing.T) {
	var source *Source

	fetches := 0
	client := &stubClient{
		listFn: func(_ context.Context, _, _ time.Time) ([]model.BusyInterval, error) {
			fetches++
			if fetches == 1 {
				// A booking lands while this fetch is in flight.
				source.Invalidate()
			}
			return nil, nil
		},
	}

	source = NewSource(fixedProvider(client), 5*time.Minute, testLogger())

	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	if _, err := source.BusyTimes(context.Background(), from, to); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The first fetch raced the invalidation, so its result must not have
	// been cached; this read has to go upstream again.
	if _, err := source.BusyTimes(context.Background(), from, to); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("expected the stale in-flight result to be discarded, got %d fetches", fetches)
	}
}

func TestBusyTimesFailsOpenWithoutCalendar(t *testing.T) {
	provider := &stubProvider{
		clientFn: func(ctx context.Context) (calendar.Client, *model.Integration, error) {
			return nil, nil, nil
		},
	}

	source := NewSource(provider, 5*time.Minute, testLogger())

	busy, err := source.BusyTimes(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if busy != nil {
		t.Fatalf("expected an empty busy list without a calendar, got %v", busy)
	}
}

func TestBusyTimesUpstreamFailure(t *testing.T) {
	client := &stubClient{
		listFn: func(_ context.Context, _, _ time.Time) ([]model.BusyInterval, error) {
			return nil, errors.New("connection refused")
		},
	}

	source := NewSource(fixedProvider(client), 5*time.Minute, testLogger())

	_, err := source.BusyTimes(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected an error from a failing upstream")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUpstream {
		t.Fatalf("expected code %s, got %s", apperrors.CodeUpstream, appErr.Code)
	}
}

func TestBusyTimesProviderFailure(t *testing.T) {
	provider := &stubProvider{
		clientFn: func(ctx context.Context) (calendar.Client, *model.Integration, error) {
			return nil, nil, errors.New("store unavailable")
		},
	}

	source := NewSource(provider, 5*time.Minute, testLogger())

	_, err := source.BusyTimes(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected an error from a failing provider")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeUpstream {
		t.Fatalf("expected code %s, got %s", apperrors.CodeUpstream, appErr.Code)
	}
}
