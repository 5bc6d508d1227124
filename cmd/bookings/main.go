package main

import (
	availabilityrepo "coachbook/internal/availability/repository"
	availabilityservice "coachbook/internal/availability/service"
	availabilityvalidator "coachbook/internal/availability/validator"
	"coachbook/internal/bookings/handler"
	"coachbook/internal/bookings/repository"
	"coachbook/internal/bookings/service"
	bookingvalidator "coachbook/internal/bookings/validator"
	"coachbook/internal/notify"
	packagerepo "coachbook/internal/packages/repository"
	packageservice "coachbook/internal/packages/service"
	packagevalidator "coachbook/internal/packages/validator"
	"coachbook/pkg/app"
	"coachbook/pkg/client"
	"coachbook/pkg/config"
	"coachbook/pkg/kafka"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	bookingService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.BookingService {
	bookingValidator := bookingvalidator.NewBookingValidator(cfg.Log)
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

	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		detector,
		bookingValidator,
		availabilitySvc,
		ledger,
		newWaiverChecker(cfg),
		newNotifier(cfg),
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func newWaiverChecker(cfg *config.Config) client.WaiverChecker {
	if cfg.WaiverServiceURL == "" {
		// With waivers required and no service to answer, every
		// client-sourced create would be rejected. Refuse to start
		// rather than run a service that cannot accept bookings.
		if cfg.RequireWaiver {
			cfg.Log.Fatal("REQUIRE_WAIVER is enabled but WAIVER_SERVICE_URL is not set; " +
				"configure the waiver service or disable REQUIRE_WAIVER")
		}
		cfg.Log.Warn("No waiver service configured, waiver checks disabled")
		return client.StaticWaiverChecker{}
	}
	return client.NewWaiverClient(cfg.WaiverServiceURL)
}

func newNotifier(cfg *config.Config) notify.Notifier {
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaEventsTopic, cfg.KafkaDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, falling back to log notifier", "error", err)
		return notify.NewLogNotifier(cfg.Log)
	}
	return notify.NewKafkaNotifier(producer, ServiceName)
}
