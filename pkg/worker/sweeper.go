package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/glowclinic/booking-api/pkg/logger"
	"github.com/glowclinic/booking-api/pkg/metrics"
)

// NoShowService is the slice of the booking service the sweeper needs.
type NoShowService interface {
	MarkNoShows(ctx context.Context) (int64, error)
}

// NoShowSweeper periodically marks overdue confirmed bookings as no-show.
// Each pass is idempotent, so overlapping instances are safe.
type NoShowSweeper struct {
	service  NoShowService
	interval time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewNoShowSweeper(service NoShowService, interval time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *NoShowSweeper {
	if interval <= 0 {
		panic("interval must be greater than 0")
	}
	return &NoShowSweeper{
		service:  service,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

func (s *NoShowSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting no-show sweeper")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down no-show sweeper")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *NoShowSweeper) sweep(ctx context.Context) {
	timer := prometheus.NewTimer(s.metrics.SweepLatency)
	defer timer.ObserveDuration()
	s.metrics.SweepRuns.Inc()

	marked, err := s.service.MarkNoShows(ctx)
	if err != nil {
		s.logger.Error(err, "no-show sweep failed")
		return
	}
	if marked > 0 {
		s.metrics.NoShowsMarked.Add(float64(marked))
		s.logger.Info("no-show sweep complete", "marked", marked)
	}
}
