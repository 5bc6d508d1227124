package main

import (
	"coachbook/internal/packages/handler"
	"coachbook/internal/packages/repository"
	"coachbook/internal/packages/service"
	"coachbook/internal/packages/validator"
	"coachbook/pkg/app"
	"coachbook/pkg/config"
)

const ServiceName = "packages"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Packages service")
	packageService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewPackageHandler(packageService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.PackageService {
	packageValidator := validator.NewPackageValidator(cfg.Log)
	packageRepo := repository.NewMongoPackageRepository(cfg)
	packageService := service.NewPackageService(
		packageRepo,
		packageValidator,
		cfg,
	)

	cfg.Log.Info("Package service initialized", "database", cfg.MongoDatabaseName)
	return packageService
}
