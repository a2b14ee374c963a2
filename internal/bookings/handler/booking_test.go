package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	apperrors "github.com/timfee/scheduler-sub001/pkg/errors"
	"github.com/timfee/scheduler-sub001/pkg/httputil"
	"github.com/timfee/scheduler-sub001/pkg/logger"
	"github.com/timfee/scheduler-sub001/pkg/model"
)

type mockBookingService struct {
	createFn       func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	availabilityFn func(ctx context.Context, typeID, date string) ([]string, error)
}

func (m *mockBookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	return m.createFn(ctx, req)
}

func (m *mockBookingService) Availability(ctx context.Context, typeID, date string) ([]string, error) {
	return m.availabilityFn(ctx, typeID, date)
}

func newTestRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	h := NewBookingHandler(svc, logger.New(logger.Config{Output: io.Discard}))
	h.RegisterRoutes(router)
	return router
}

func decodeError(t *testing.T, body io.Reader) httputil.ErrorResponse {
	t.Helper()
	var resp httputil.ErrorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestCreateBookingEndpoint(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(_ context.Context, req *model.BookingRequest) (*model.Booking, error) {
			return &model.Booking{
				Reference: "evt-1",
				TypeID:    req.TypeID,
				StartUTC:  time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC),
				EndUTC:    time.Date(2024, 1, 15, 15, 30, 0, 0, time.UTC),
				Name:      req.Name,
				Email:     req.Email,
			}, nil
		},
	}
	router := newTestRouter(svc)

	body := `{"type":"intro-call","date":"2024-01-15","time":"10:00","name":"Ada Lovelace","email":"ada@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data model.Booking `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Reference != "evt-1" {
		t.Errorf("unexpected reference %q", resp.Data.Reference)
	}
}

func TestCreateBookingEndpointMalformedBody(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(_ context.Context, _ *model.BookingRequest) (*model.Booking, error) {
			t.Fatal("service must not be called for a malformed body")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateBookingEndpointConflict(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(_ context.Context, _ *model.BookingRequest) (*model.Booking, error) {
			return nil, apperrors.SlotUnavailable()
		},
	}
	router := newTestRouter(svc)

	body := `{"type":"intro-call","date":"2024-01-15","time":"10:00","name":"Ada","email":"ada@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeError(t, rec.Body)
	if resp.Error != "Selected time is not available" {
		t.Errorf("unexpected error message %q", resp.Error)
	}
	if resp.Code != apperrors.CodeSlotUnavailable {
		t.Errorf("unexpected error code %q", resp.Code)
	}
}

func TestCreateBookingEndpointRateLimited(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(_ context.Context, _ *model.BookingRequest) (*model.Booking, error) {
			return nil, apperrors.RateLimited()
		},
	}
	router := newTestRouter(svc)

	body := `{"type":"intro-call","date":"2024-01-15","time":"10:00","name":"Ada","email":"ada@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if resp := decodeError(t, rec.Body); resp.Error != "Too many booking attempts" {
		t.Errorf("unexpected error message %q", resp.Error)
	}
}

func TestAvailabilityEndpoint(t *testing.T) {
	svc := &mockBookingService{
		availabilityFn: func(_ context.Context, typeID, date string) ([]string, error) {
			if typeID != "intro-call" || date != "2024-01-15" {
				t.Errorf("unexpected query %s/%s", typeID, date)
			}
			return []string{"09:00", "09:30"}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/availability?type=intro-call&date=2024-01-15", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data []string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0] != "09:00" {
		t.Errorf("unexpected slots %v", resp.Data)
	}
}

func TestAvailabilityEndpointMissingParams(t *testing.T) {
	svc := &mockBookingService{
		availabilityFn: func(_ context.Context, _, _ string) ([]string, error) {
			t.Fatal("service must not be called without both params")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	for _, target := range []string{"/v1/availability", "/v1/availability?type=intro-call", "/v1/availability?date=2024-01-15"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestAvailabilityEndpointEmptyDay(t *testing.T) {
	svc := &mockBookingService{
		availabilityFn: func(_ context.Context, _, _ string) ([]string, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/availability?type=intro-call&date=2024-01-13", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("expected an explicit empty array, got %s", rec.Body.String())
	}
}
