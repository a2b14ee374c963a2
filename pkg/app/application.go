// Package app owns the HTTP server lifecycle: middleware stack, signal
// handling and graceful shutdown of background workers.
package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"github.com/timfee/scheduler-sub001/pkg/config"
	"github.com/timfee/scheduler-sub001/pkg/middleware"
)

// RouteRegistrar is implemented by every HTTP handler group.
type RouteRegistrar interface {
	RegisterRoutes(router *httprouter.Router)
}

// Stopper is implemented by components with background goroutines that must
// stop before the process exits (the guard sweeper, the event publisher).
type Stopper interface {
	Stop()
}

type Application struct {
	cfg      *config.Config
	server   *http.Server
	stoppers []Stopper
}

func NewApplication(cfg *config.Config, health RouteRegistrar, handlers ...RouteRegistrar) *Application {
	a := &Application{cfg: cfg}

	healthRouter := httprouter.New()
	health.RegisterRoutes(healthRouter)
	var healthHandler http.Handler = healthRouter
	healthHandler = middleware.RequestLogging(cfg.Log)(healthHandler)
	healthHandler = middleware.Recovery(cfg.Log)(healthHandler)

	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	var appHandler http.Handler = appRouter
	appHandler = middleware.RequestTimeout(cfg.RequestTimeout)(appHandler)
	appHandler = middleware.ContentTypeValidation(cfg.Log)(appHandler)
	appHandler = middleware.MaxRequestSize(int64(cfg.MaxRequestSize))(appHandler)
	appHandler = middleware.RequestLogging(cfg.Log)(appHandler)
	appHandler = middleware.Recovery(cfg.Log)(appHandler)

	mux := http.NewServeMux()
	mux.Handle("/health", healthHandler)
	mux.Handle("/ready", healthHandler)
	mux.Handle("/", appHandler)

	a.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	cfg.Log.Info("HTTP server configured", "port", cfg.Port)
	return a
}

// OnShutdown registers a component to stop during graceful shutdown.
func (a *Application) OnShutdown(s Stopper) {
	a.stoppers = append(a.stoppers, s)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig.String())
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	for _, s := range a.stoppers {
		s.Stop()
	}
	a.cfg.Log.Info("Background workers stopped")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
