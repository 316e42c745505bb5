package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/covid-data-aggregation/internal/cache"
	"github.com/i474232898/covid-data-aggregation/internal/metrics"
)

// Scheduler periodically sweeps expired entries from the response cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	memo      cache.Memoizer
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(memo cache.Memoizer, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		memo:      memo,
		interval:  interval,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if _, ok := s.memo.(cache.Nop); ok {
		s.logger.Info("response cache disabled; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(s.Sweep)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("cache sweep scheduled", "interval", interval)
	return nil
}

// Sweep removes expired cache entries once.
func (s *Scheduler) Sweep() {
	removed := s.memo.DeleteExpired()
	metrics.CacheEvictions.Add(float64(removed))
	s.logger.Debug("cache sweep completed", "removed", removed)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
