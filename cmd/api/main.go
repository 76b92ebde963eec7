package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glowclinic/booking-api/internal/config"
	"github.com/glowclinic/booking-api/internal/email"
	authHandler "github.com/glowclinic/booking-api/internal/handler/auth"
	bookingHandler "github.com/glowclinic/booking-api/internal/handler/booking"
	healthHandler "github.com/glowclinic/booking-api/internal/handler/health"
	orderHandler "github.com/glowclinic/booking-api/internal/handler/order"
	treatmentHandler "github.com/glowclinic/booking-api/internal/handler/treatment"
	"github.com/glowclinic/booking-api/internal/middleware"
	"github.com/glowclinic/booking-api/internal/repository/postgres"
	"github.com/glowclinic/booking-api/internal/router"
	authService "github.com/glowclinic/booking-api/internal/service/auth"
	bookingService "github.com/glowclinic/booking-api/internal/service/booking"
	orderService "github.com/glowclinic/booking-api/internal/service/order"
	treatmentService "github.com/glowclinic/booking-api/internal/service/treatment"
	"github.com/glowclinic/booking-api/pkg/auth"
	"github.com/glowclinic/booking-api/pkg/clock"
	"github.com/glowclinic/booking-api/pkg/logger"
	"github.com/glowclinic/booking-api/pkg/otp"
	"github.com/glowclinic/booking-api/pkg/reference"

	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := postgres.Migrate(migrateCtx, db, cfg.Clinic.MigrationsDir); err != nil {
		cancelMigrate()
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	cancelMigrate()

	clinicClock, err := clock.New(cfg.Clinic.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load clinic timezone")
	}

	// Repositories
	bookingRepo := postgres.NewBookingRepository(db)
	userRepo := postgres.NewUserRepository(db)
	adminRepo := postgres.NewAdminRepository(db)
	treatmentRepo := postgres.NewTreatmentRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	// Shared infrastructure
	tokenExpiry := time.Duration(cfg.JWT.ExpiryHours) * time.Hour
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, tokenExpiry)
	otpStore := otp.NewStore(time.Duration(cfg.Clinic.OTPTTLMinutes) * time.Minute)
	refGen := reference.NewGenerator(clinicClock)

	var mailer email.Service = email.Noop{}
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPService(cfg.SMTP)
	}

	// Services
	authSvc := authService.NewService(userRepo, adminRepo, otpStore, jwtSvc, mailer, clinicClock, appLogger, tokenExpiry)
	bookingSvc := bookingService.NewService(bookingRepo, treatmentRepo, mailer, clinicClock, refGen, appLogger)
	treatmentSvc := treatmentService.NewService(treatmentRepo)
	orderSvc := orderService.NewService(orderRepo, refGen, appLogger)

	// Handlers
	authH := authHandler.NewHandler(authSvc)
	bookingH := bookingHandler.NewHandler(bookingSvc)
	treatmentH := treatmentHandler.NewHandler(treatmentSvc)
	orderH := orderHandler.NewHandler(orderSvc)
	healthH := healthHandler.NewHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.New(
		authMiddleware,
		authH,
		bookingH,
		treatmentH,
		orderH,
		healthH,
		router.Config{
			RateLimit:  rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst:  cfg.Server.RateLimitBurst,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
