package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	availabilityrepo "coachbook/internal/availability/repository"
	availabilityservice "coachbook/internal/availability/service"
	availabilityvalidator "coachbook/internal/availability/validator"
	"coachbook/internal/bookings/repository"
	"coachbook/internal/bookings/service"
	bookingvalidator "coachbook/internal/bookings/validator"
	"coachbook/internal/confirmations"
	"coachbook/internal/notify"
	packagerepo "coachbook/internal/packages/repository"
	packageservice "coachbook/internal/packages/service"
	packagevalidator "coachbook/internal/packages/validator"
	"coachbook/pkg/client"
	"coachbook/pkg/config"
)

const ServiceName = "confirmations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	bookingService := initServices(cfg)
	consumer, err := confirmations.NewConsumer(cfg, bookingService)
	if err != nil {
		cfg.Log.Fatal("Failed to create reply consumer", "error", err)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Confirmation reply consumer started", "topic", cfg.KafkaRepliesTopic)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Fatal("Consumer stopped unexpectedly", "error", err)
	}
	cfg.Log.Info("Confirmation reply consumer stopped")
}

func initServices(cfg *config.Config) service.BookingService {
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewMongoSlotLockRepository(cfg)
	detector := service.NewConflictDetector(bookingRepo)

	availabilitySvc := availabilityservice.NewAvailabilityService(
		availabilityrepo.NewMongoWindowRepository(cfg),
		availabilityrepo.NewMongoBlockRepository(cfg),
		availabilityvalidator.NewAvailabilityValidator(cfg.Log),
		cfg,
	)

	ledger := packageservice.NewPackageService(
		packagerepo.NewMongoPackageRepository(cfg),
		packagevalidator.NewPackageValidator(cfg.Log),
		cfg,
	)

	return service.NewBookingService(
		bookingRepo,
		lockRepo,
		detector,
		bookingvalidator.NewBookingValidator(cfg.Log),
		availabilitySvc,
		ledger,
		client.StaticWaiverChecker{},
		notify.NewLogNotifier(cfg.Log),
		cfg,
	)
}
