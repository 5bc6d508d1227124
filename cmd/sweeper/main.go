package main

import (
	"context"
	"os/signal"
	"syscall"

	availabilityrepo "coachbook/internal/availability/repository"
	availabilityservice "coachbook/internal/availability/service"
	availabilityvalidator "coachbook/internal/availability/validator"
	"coachbook/internal/bookings/repository"
	"coachbook/internal/bookings/service"
	bookingvalidator "coachbook/internal/bookings/validator"
	"coachbook/internal/notify"
	packagerepo "coachbook/internal/packages/repository"
	packageservice "coachbook/internal/packages/service"
	packagevalidator "coachbook/internal/packages/validator"
	"coachbook/internal/sweeper"
	"coachbook/pkg/client"
	"coachbook/pkg/config"
	"coachbook/pkg/kafka"
)

const ServiceName = "sweeper"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	bookingService := initServices(cfg)
	worker := sweeper.NewWorker(bookingService, cfg.SweepInterval, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Run(ctx)
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
		newNotifier(cfg),
		cfg,
	)
}

func newNotifier(cfg *config.Config) notify.Notifier {
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaEventsTopic, cfg.KafkaDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, falling back to log notifier", "error", err)
		return notify.NewLogNotifier(cfg.Log)
	}
	return notify.NewKafkaNotifier(producer, ServiceName)
}
