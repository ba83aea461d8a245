package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

const jobTimeout = 30 * time.Second

// IntentExpirer closes transfer intents whose validity window has passed
type IntentExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// MarketRefresher reloads cached market data
type MarketRefresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs the recurring maintenance jobs
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       *zap.Logger
}

// NewScheduler creates a scheduler running in UTC
func NewScheduler(log *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{scheduler: s, log: log}
}

// ScheduleIntentExpiry expires stale transfer intents every interval
func (s *Scheduler) ScheduleIntentExpiry(expirer IntentExpirer, interval time.Duration) error {
	return s.every("expire_transfer_intents", interval, func(ctx context.Context) error {
		_, err := expirer.ExpireStale(ctx)
		return err
	})
}

// ScheduleMarketRefresh refreshes market data every interval
func (s *Scheduler) ScheduleMarketRefresh(refresher MarketRefresher, interval time.Duration) error {
	return s.every("refresh_market_data", interval, refresher.Refresh)
}

func (s *Scheduler) every(name string, interval time.Duration, run func(ctx context.Context) error) error {
	_, err := s.scheduler.Every(interval).Tag(name).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			s.log.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Debug("scheduled job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("error scheduling %s: %w", name, err)
	}
	return nil
}

// Start runs the jobs in the background
func (s *Scheduler) Start() {
	s.log.Info("starting scheduler", zap.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.StartAsync()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.log.Info("scheduler stopped")
}
