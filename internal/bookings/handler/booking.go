package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/timfee/scheduler-sub001/internal/bookings/service"
	apperrors "github.com/timfee/scheduler-sub001/pkg/errors"
	"github.com/timfee/scheduler-sub001/pkg/httputil"
	"github.com/timfee/scheduler-sub001/pkg/logger"
	"github.com/timfee/scheduler-sub001/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/v1/bookings", h.Create)
	router.GET("/v1/availability", h.Availability)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	typeID := query.Get("type")
	date := query.Get("date")

	if typeID == "" || date == "" {
		h.writeError(w, "Availability", apperrors.InvalidInput("type and date query parameters are required"))
		return
	}

	slots, err := h.service.Availability(r.Context(), typeID, date)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	if slots == nil {
		slots = []string{}
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}
