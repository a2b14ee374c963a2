package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/timfee/scheduler-sub001/pkg/httputil"
	"github.com/timfee/scheduler-sub001/pkg/logger"
)

type HealthHandler struct {
	mongo *mongo.Client
	log   *logger.Logger
}

func NewHealthHandler(mongoClient *mongo.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{mongo: mongoClient, log: log}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	_ = httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready verifies the mongo connection; the calendar upstream is excluded on
// purpose since the service degrades gracefully without it.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.mongo.Ping(ctx, nil); err != nil {
		h.log.Error("Readiness check failed", "error", err)
		_ = httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}

	_ = httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
