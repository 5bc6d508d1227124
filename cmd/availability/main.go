package main

import (
	availabilityhandler "coachbook/internal/availability/handler"
	availabilityrepo "coachbook/internal/availability/repository"
	availabilityservice "coachbook/internal/availability/service"
	availabilityvalidator "coachbook/internal/availability/validator"
	bookingrepo "coachbook/internal/bookings/repository"
	bookingservice "coachbook/internal/bookings/service"
	slothandler "coachbook/internal/slots/handler"
	slotservice "coachbook/internal/slots/service"
	"coachbook/pkg/app"
	"coachbook/pkg/config"
	"coachbook/pkg/contracts"
)

const ServiceName = "availability"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Availability service")
	handlers := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handlers...)
	serverApp.Run()
}

func initServices(cfg *config.Config) []contracts.Handler {
	availabilityValidator := availabilityvalidator.NewAvailabilityValidator(cfg.Log)
	windowRepo := availabilityrepo.NewMongoWindowRepository(cfg)
	blockRepo := availabilityrepo.NewMongoBlockRepository(cfg)
	availabilitySvc := availabilityservice.NewAvailabilityService(
		windowRepo,
		blockRepo,
		availabilityValidator,
		cfg,
	)

	// Slot generation reads bookings to suppress already-taken slots.
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	detector := bookingservice.NewConflictDetector(bookingRepo)
	slotSvc := slotservice.NewSlotService(availabilitySvc, detector, cfg)

	cfg.Log.Info("Availability service initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		availabilityhandler.NewAvailabilityHandler(availabilitySvc, cfg.Log),
		slothandler.NewSlotHandler(slotSvc, cfg),
	}
}
