package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionPurger removes expired admin sessions
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler runs periodic maintenance jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler registers the maintenance jobs. schedule is a cron expression such
// as "@hourly".
func NewScheduler(purger SessionPurger, schedule string, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := purger.PurgeExpiredSessions(ctx)
		if err != nil {
			logger.Error("Failed to purge expired admin sessions", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("Purged expired admin sessions", zap.Int64("count", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session purge schedule %q: %w", schedule, err)
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
