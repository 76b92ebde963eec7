package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/glowclinic/booking-api/internal/config"
	"github.com/glowclinic/booking-api/internal/email"
	"github.com/glowclinic/booking-api/internal/repository/postgres"
	bookingService "github.com/glowclinic/booking-api/internal/service/booking"
	"github.com/glowclinic/booking-api/pkg/clock"
	"github.com/glowclinic/booking-api/pkg/logger"
	"github.com/glowclinic/booking-api/pkg/messaging/redis"
	"github.com/glowclinic/booking-api/pkg/metrics"
	"github.com/glowclinic/booking-api/pkg/reference"
	"github.com/glowclinic/booking-api/pkg/worker"
)

// The worker runs the background loops that keep booking state honest: the
// no-show sweep, the reminder dispatcher and the outbox publisher. It shares
// the service layer with the API, so the rules live in exactly one place.
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

	clinicClock, err := clock.New(cfg.Clinic.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load clinic timezone")
	}

	bookingRepo := postgres.NewBookingRepository(db)
	treatmentRepo := postgres.NewTreatmentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	var mailer email.Service = email.Noop{}
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPService(cfg.SMTP)
	}

	refGen := reference.NewGenerator(clinicClock)
	bookingSvc := bookingService.NewService(bookingRepo, treatmentRepo, mailer, clinicClock, refGen, appLogger)

	zl := log.Logger
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &zl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("glowclinic", "worker")

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Worker.OutboxBatchSize,
		PollInterval:  time.Duration(cfg.Worker.OutboxIntervalSeconds) * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}, appLogger, m)

	sweeper := worker.NewNoShowSweeper(
		bookingSvc,
		time.Duration(cfg.Worker.SweepIntervalMinutes)*time.Minute,
		appLogger, m,
	)

	reminders := worker.NewReminderDispatcher(
		bookingSvc,
		time.Duration(cfg.Worker.ReminderIntervalMinutes)*time.Minute,
		appLogger, m,
	)

	cleanup := worker.NewOutboxCleanup(
		outboxRepo,
		time.Duration(cfg.Worker.OutboxRetentionHours)*time.Hour,
		time.Duration(cfg.Worker.CleanupIntervalHours)*time.Hour,
		appLogger,
	)

	setupHealthAndMetrics(appLogger)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	for _, loop := range []func(context.Context){
		outboxProcessor.Start,
		sweeper.Start,
		reminders.Start,
		cleanup.Start,
	} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(loop)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")

	cancel()
	wg.Wait()
	log.Info().Msg("worker exited properly")
}

func setupHealthAndMetrics(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.Fatal(err, "health check server failed")
		}
	}()
}
