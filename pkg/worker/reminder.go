package worker

import (
	"context"
	"time"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/pkg/logger"
	"github.com/glowclinic/booking-api/pkg/metrics"
)

// ReminderService is the slice of the booking service the dispatcher needs.
type ReminderService interface {
	SendReminders(ctx context.Context) (map[model.ReminderKind]int, error)
}

// ReminderDispatcher periodically sends due appointment reminders. Sends are
// recorded per booking and kind, so re-runs never double-send.
type ReminderDispatcher struct {
	service  ReminderService
	interval time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewReminderDispatcher(service ReminderService, interval time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *ReminderDispatcher {
	if interval <= 0 {
		panic("interval must be greater than 0")
	}
	return &ReminderDispatcher{
		service:  service,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

func (d *ReminderDispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("starting reminder dispatcher")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down reminder dispatcher")
			return
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

func (d *ReminderDispatcher) dispatch(ctx context.Context) {
	sent, err := d.service.SendReminders(ctx)
	if err != nil {
		d.logger.Error(err, "reminder dispatch failed")
		d.metrics.ReminderErrors.WithLabelValues("all").Inc()
		return
	}

	for kind, count := range sent {
		d.metrics.RemindersSent.WithLabelValues(string(kind)).Add(float64(count))
	}
}
