package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/timfee/scheduler-sub001/internal/admin/service"
	apperrors "github.com/timfee/scheduler-sub001/pkg/errors"
	"github.com/timfee/scheduler-sub001/pkg/httputil"
	"github.com/timfee/scheduler-sub001/pkg/logger"
	"github.com/timfee/scheduler-sub001/pkg/model"
)

type AdminHandler struct {
	service service.AdminService
	log     *logger.Logger
}

func NewAdminHandler(service service.AdminService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{service: service, log: log}
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/v1/appointment-types", h.ListTypes)
	router.POST("/v1/appointment-types", h.CreateType)
	router.DELETE("/v1/appointment-types/:id", h.DeleteType)
	router.GET("/v1/business-hours", h.GetHours)
	router.PUT("/v1/business-hours", h.PutHours)
}

func (h *AdminHandler) ListTypes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	types, err := h.service.ListAppointmentTypes(r.Context())
	if err != nil {
		h.writeError(w, "ListTypes", err)
		return
	}
	if types == nil {
		types = []*model.AppointmentType{}
	}

	if err := httputil.WriteSuccess(w, types); err != nil {
		h.log.Error("failed to write success response", "handler", "ListTypes", "error", err)
	}
}

func (h *AdminHandler) CreateType(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var at model.AppointmentType
	if err := json.NewDecoder(r.Body).Decode(&at); err != nil {
		h.writeError(w, "CreateType", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.CreateAppointmentType(r.Context(), &at); err != nil {
		h.writeError(w, "CreateType", err)
		return
	}

	if err := httputil.WriteCreated(w, at); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateType", "error", err)
	}
}

func (h *AdminHandler) DeleteType(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteAppointmentType(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteType", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *AdminHandler) GetHours(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	hours, err := h.service.GetBusinessHours(r.Context())
	if err != nil {
		h.writeError(w, "GetHours", err)
		return
	}
	if hours == nil {
		h.writeError(w, "GetHours", apperrors.NotFound("Business hours"))
		return
	}

	if err := httputil.WriteSuccess(w, hours); err != nil {
		h.log.Error("failed to write success response", "handler", "GetHours", "error", err)
	}
}

func (h *AdminHandler) PutHours(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var hours model.BusinessHours
	if err := json.NewDecoder(r.Body).Decode(&hours); err != nil {
		h.writeError(w, "PutHours", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.PutBusinessHours(r.Context(), &hours); err != nil {
		h.writeError(w, "PutHours", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AdminHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}
