package main

import (
	adminhandler "github.com/timfee/scheduler-sub001/internal/admin/handler"
	adminservice "github.com/timfee/scheduler-sub001/internal/admin/service"
	"github.com/timfee/scheduler-sub001/internal/availability"
	bookinghandler "github.com/timfee/scheduler-sub001/internal/bookings/handler"
	bookingservice "github.com/timfee/scheduler-sub001/internal/bookings/service"
	"github.com/timfee/scheduler-sub001/internal/bookings/validator"
	"github.com/timfee/scheduler-sub001/internal/guard"
	"github.com/timfee/scheduler-sub001/internal/integrations/repository"
	integrationservice "github.com/timfee/scheduler-sub001/internal/integrations/service"
	"github.com/timfee/scheduler-sub001/pkg/app"
	"github.com/timfee/scheduler-sub001/pkg/config"
	"github.com/timfee/scheduler-sub001/pkg/events"
)

func main() {
	cfg := config.Load("bookingd")
	cfg.SetMongo()

	store := repository.NewStore(cfg)
	provider := integrationservice.NewCalendarProvider(store, cfg.Log)
	source := availability.NewSource(provider, cfg.BusyCacheTTL, cfg.Log)

	bookingGuard := guard.New(guard.Options{
		MaxAttempts:   cfg.RateLimitAttempts,
		Window:        cfg.RateLimitWindow,
		LockTTL:       cfg.SlotLockTTL,
		SweepInterval: cfg.SweepInterval,
		Log:           cfg.Log,
	})

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.Log)

	bookingSvc := bookingservice.NewBookingService(
		store,
		source,
		bookingGuard,
		provider,
		validator.NewBookingValidator(),
		publisher,
		cfg,
	)
	adminSvc := adminservice.NewAdminService(store, cfg)

	application := app.NewApplication(
		cfg,
		adminhandler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		bookinghandler.NewBookingHandler(bookingSvc, cfg.Log),
		adminhandler.NewAdminHandler(adminSvc, cfg.Log),
	)
	application.OnShutdown(bookingGuard)
	if publisher != nil {
		application.OnShutdown(publisher)
	}

	application.Run()
}
