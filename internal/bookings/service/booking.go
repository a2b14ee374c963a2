// Package service orchestrates the booking flow: validation, rate limiting,
// slot locking, the booking-time availability re-check and the upstream
// event creation.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timfee/scheduler-sub001/internal/availability"
	"github.com/timfee/scheduler-sub001/internal/bookings/validator"
	"github.com/timfee/scheduler-sub001/internal/calendar"
	"github.com/timfee/scheduler-sub001/internal/guard"
	"github.com/timfee/scheduler-sub001/internal/integrations/repository"
	"github.com/timfee/scheduler-sub001/pkg/config"
	apperrors "github.com/timfee/scheduler-sub001/pkg/errors"
	"github.com/timfee/scheduler-sub001/pkg/events"
	"github.com/timfee/scheduler-sub001/pkg/model"
	"github.com/timfee/scheduler-sub001/pkg/sanitizer"
)

type BookingService interface {
	// Create books the requested slot, guaranteeing at most one successful
	// booking per slot key under concurrent requests.
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)

	// Availability lists bookable "HH:MM" start times for a date and
	// appointment type.
	Availability(ctx context.Context, typeID, date string) ([]string, error)
}

type bookingService struct {
	store     repository.Store
	source    *availability.Source
	guard     *guard.Guard
	provider  availability.ClientProvider
	validator *validator.BookingValidator
	publisher *events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	store repository.Store,
	source *availability.Source,
	g *guard.Guard,
	provider availability.ClientProvider,
	v *validator.BookingValidator,
	publisher *events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		store:     store,
		source:    source,
		guard:     g,
		provider:  provider,
		validator: v,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	s.sanitize(req)

	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if !s.guard.Allow(req.Email) {
		s.cfg.Log.Warn("Booking attempt rate limited", "email", req.Email)
		return nil, apperrors.RateLimited()
	}

	apptType, err := s.resolveAppointmentType(ctx, req.TypeID)
	if err != nil {
		return nil, err
	}

	slotKey := req.SlotKey()
	if !s.guard.TryAcquire(slotKey) {
		s.cfg.Log.Info("Slot lock contention", "slot_key", slotKey)
		return nil, apperrors.SlotUnavailable()
	}
	defer s.guard.Release(slotKey)

	// The lock only wins races inside its own lifetime; the slot may have
	// been taken through another path since the UI's availability read, so
	// always re-check against fresh busy intervals before committing.
	hours, err := s.businessHours(ctx)
	if err != nil {
		return nil, err
	}
	if hours == nil {
		// Nothing is bookable until business hours are configured.
		return nil, apperrors.SlotUnavailable()
	}

	slots, err := s.slotsFor(ctx, req.Date, apptType.DurationMinutes, hours)
	if err != nil {
		return nil, err
	}
	if !availability.Contains(slots, req.Time) {
		return nil, apperrors.SlotUnavailable()
	}

	client, _, err := s.provider.BookingClient(ctx)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	if client == nil {
		return nil, apperrors.NotConfigured()
	}

	start, end, err := s.slotInstant(req, apptType.DurationMinutes, hours.TimeZone)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve slot instant", err)
	}

	event, err := client.CreateAppointment(ctx, calendar.CreateRequest{
		Title:         fmt.Sprintf("%s: %s", apptType.Name, req.Name),
		Description:   fmt.Sprintf("Booked by %s <%s>", req.Name, req.Email),
		Start:         start,
		End:           end,
		OwnerTimeZone: hours.TimeZone,
	})
	if err != nil {
		s.cfg.Log.Error("Upstream appointment creation failed", "slot_key", slotKey, "error", err)
		return nil, apperrors.Upstream(err)
	}

	// The next availability read must see the new event immediately.
	s.source.Invalidate()

	booking := &model.Booking{
		Reference: event.UID,
		TypeID:    apptType.ID,
		StartUTC:  start.UTC(),
		EndUTC:    end.UTC(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}

	s.publisher.BookingCreated(ctx, slotKey, booking)

	s.cfg.Log.Info("Booking created",
		"reference", booking.Reference,
		"slot_key", slotKey,
		"type", apptType.ID,
	)
	return booking, nil
}

func (s *bookingService) Availability(ctx context.Context, typeID, date string) ([]string, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}

	apptType, err := s.resolveAppointmentType(ctx, typeID)
	if err != nil {
		return nil, err
	}

	hours, err := s.businessHours(ctx)
	if err != nil {
		return nil, err
	}
	if hours == nil {
		return nil, nil
	}

	return s.slotsFor(ctx, date, apptType.DurationMinutes, hours)
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.Name = sanitizer.NormalizeName(req.Name)
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.TypeID = sanitizer.TrimAndNormalize(req.TypeID)
}

func (s *bookingService) resolveAppointmentType(ctx context.Context, typeID string) (*model.AppointmentType, error) {
	apptType, err := s.store.GetAppointmentType(ctx, typeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.InvalidInput("Invalid appointment type")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve appointment type", err)
	}
	if !apptType.Active {
		return nil, apperrors.InvalidInput("Invalid appointment type")
	}
	return apptType, nil
}

func (s *bookingService) businessHours(ctx context.Context) (*model.BusinessHours, error) {
	hours, err := s.store.GetBusinessHours(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load business hours", err)
	}
	return hours, nil
}

// slotsFor fetches busy intervals for the date's full day window and runs the
// slot calculator against them.
func (s *bookingService) slotsFor(ctx context.Context, date string, durationMin int, hours *model.BusinessHours) ([]string, error) {
	from, to, err := availability.DayRange(date, hours.TimeZone)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid date")
	}

	busy, err := s.source.BusyTimes(ctx, from, to)
	if err != nil {
		return nil, err
	}

	slots, err := availability.ComputeSlots(date, durationMin, *hours, busy)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute slots", err)
	}
	return slots, nil
}

func (s *bookingService) slotInstant(req *model.BookingRequest, durationMin int, timeZone string) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(time.Duration(durationMin) * time.Minute), nil
}
