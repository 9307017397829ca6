package main

import (
	"context"

	"github.com/joho/godotenv"

	"lockerd/internal/events"
	"lockerd/internal/health"
	lockershandler "lockerd/internal/lockers/handler"
	lockersrepo "lockerd/internal/lockers/repository"
	lockersservice "lockerd/internal/lockers/service"
	lockersvalidator "lockerd/internal/lockers/validator"
	migrations "lockerd/internal/migrations/mongo"
	"lockerd/internal/notifier"
	reservationshandler "lockerd/internal/reservations/handler"
	reservationsrepo "lockerd/internal/reservations/repository"
	reservationsservice "lockerd/internal/reservations/service"
	reservationsvalidator "lockerd/internal/reservations/validator"
	"lockerd/internal/seed"
	"lockerd/internal/sweeper"
	usershandler "lockerd/internal/users/handler"
	usersrepo "lockerd/internal/users/repository"
	usersservice "lockerd/internal/users/service"
	usersvalidator "lockerd/internal/users/validator"
	"lockerd/pkg/app"
	"lockerd/pkg/clock"
	"lockerd/pkg/config"
	"lockerd/pkg/contracts"
)

const ServiceName = "lockerd"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	ctx := context.Background()
	if err := migrations.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName); err != nil {
		cfg.Log.Fatal("Migrations failed", "error", err)
	}

	usersRepository := usersrepo.NewMongoUserRepository(cfg)
	lockerRepository := lockersrepo.NewMongoLockerRepository(cfg)
	if cfg.SeedOnStartup {
		if err := seed.AdminUser(ctx, usersRepository, cfg); err != nil {
			cfg.Log.Fatal("Admin seeding failed", "error", err)
		}
		if err := seed.Lockers(ctx, lockerRepository, cfg); err != nil {
			cfg.Log.Fatal("Locker seeding failed", "error", err)
		}
	}

	mail := notifier.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.EventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Events publisher initialization failed", "error", err)
	}

	clk := clock.System()

	lockerService := lockersservice.NewLockerService(
		lockerRepository,
		lockersvalidator.NewLockerValidator(cfg.Log),
		cfg,
	)

	reservationRepository := reservationsrepo.NewMongoReservationRepository(cfg)
	admissionLocks := reservationsrepo.NewAdmissionLockRepository(cfg)
	reservationService := reservationsservice.NewReservationService(
		reservationRepository,
		admissionLocks,
		lockerRepository,
		usersRepository,
		reservationsvalidator.NewReservationValidator(cfg.Log),
		mail,
		publisher,
		clk,
		cfg,
	)

	userService := usersservice.NewUserService(
		usersRepository,
		usersvalidator.NewUserValidator(cfg.Log),
		mail,
		cfg,
	)

	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	sw := sweeper.New(reservationRepository, lockerRepository, usersRepository, mail, publisher, clk, cfg)
	sw.Start(sweeperCtx)

	handlers := []contracts.Handler{
		lockershandler.NewLockerHandler(lockerService, cfg.Log, cfg.JWTSecret),
		reservationshandler.NewReservationHandler(reservationService, cfg.Log, cfg.JWTSecret),
		usershandler.NewUserHandler(userService, cfg.Log, cfg.JWTSecret),
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(health.NewHandler(cfg), handlers...)
	serverApp.OnShutdown(func() {
		stopSweeper()
		sw.Wait()
	})
	serverApp.OnShutdown(func() { _ = publisher.Close() })
	serverApp.OnShutdown(cfg.GracefulShutdown)

	cfg.Log.Info("Starting locker reservation service")
	serverApp.Run()
}
