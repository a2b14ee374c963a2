// Package service backs the admin surface: appointment types and the
// business-hours template.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/timfee/scheduler-sub001/internal/integrations/repository"
	"github.com/timfee/scheduler-sub001/pkg/config"
	apperrors "github.com/timfee/scheduler-sub001/pkg/errors"
	"github.com/timfee/scheduler-sub001/pkg/model"
	"github.com/timfee/scheduler-sub001/pkg/sanitizer"
)

type AdminService interface {
	ListAppointmentTypes(ctx context.Context) ([]*model.AppointmentType, error)
	CreateAppointmentType(ctx context.Context, at *model.AppointmentType) error
	DeleteAppointmentType(ctx context.Context, id string) error

	GetBusinessHours(ctx context.Context) (*model.BusinessHours, error)
	PutBusinessHours(ctx context.Context, hours *model.BusinessHours) error
}

type adminService struct {
	store    repository.Store
	validate *validator.Validate
	cfg      *config.Config
}

func NewAdminService(store repository.Store, cfg *config.Config) AdminService {
	return &adminService{
		store:    store,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *adminService) ListAppointmentTypes(ctx context.Context) ([]*model.AppointmentType, error) {
	types, err := s.store.ListAppointmentTypes(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list appointment types", err)
	}
	return types, nil
}

func (s *adminService) CreateAppointmentType(ctx context.Context, at *model.AppointmentType) error {
	at.Name = sanitizer.NormalizeName(at.Name)

	if err := s.validate.Struct(at); err != nil {
		return apperrors.Validation("Appointment type validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.store.CreateAppointmentType(ctx, at); err != nil {
		s.cfg.Log.Error("Failed to create appointment type", "name", at.Name, "error", err)
		return apperrors.Internal("Failed to create appointment type", err)
	}

	s.cfg.Log.Info("Appointment type created", "id", at.ID, "name", at.Name, "duration_min", at.DurationMinutes)
	return nil
}

func (s *adminService) DeleteAppointmentType(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Appointment type ID cannot be empty")
	}

	err := s.store.DeleteAppointmentType(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Appointment type")
	}
	if err != nil {
		return apperrors.Internal("Failed to delete appointment type", err)
	}

	s.cfg.Log.Info("Appointment type deleted", "id", id)
	return nil
}

func (s *adminService) GetBusinessHours(ctx context.Context) (*model.BusinessHours, error) {
	hours, err := s.store.GetBusinessHours(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load business hours", err)
	}
	return hours, nil
}

func (s *adminService) PutBusinessHours(ctx context.Context, hours *model.BusinessHours) error {
	if err := s.validate.Struct(hours); err != nil {
		return apperrors.Validation("Business hours validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := validateDayKeys(hours); err != nil {
		return err
	}

	if err := s.store.PutBusinessHours(ctx, hours); err != nil {
		s.cfg.Log.Error("Failed to store business hours", "error", err)
		return apperrors.Internal("Failed to store business hours", err)
	}

	s.cfg.Log.Info("Business hours updated", "time_zone", hours.TimeZone)
	return nil
}

// validateDayKeys checks the weekday map shape and that every range starts
// before it ends. Overlap between ranges in a day is intentionally not
// enforced; the editor owns that.
func validateDayKeys(hours *model.BusinessHours) error {
	valid := make(map[string]bool, len(model.WeekdayKeys))
	for _, k := range model.WeekdayKeys {
		valid[k] = true
	}

	for day, tmpl := range hours.Days {
		if !valid[day] {
			return apperrors.Validation("Business hours validation failed", map[string]any{
				"error": fmt.Sprintf("unknown weekday key %q", day),
			})
		}
		for _, r := range tmpl.Slots {
			// "HH:MM" zero-padded strings order lexicographically.
			if r.Start >= r.End {
				return apperrors.Validation("Business hours validation failed", map[string]any{
					"error": fmt.Sprintf("%s: range start %q must be before end %q", day, r.Start, r.End),
				})
			}
		}
	}
	return nil
}
