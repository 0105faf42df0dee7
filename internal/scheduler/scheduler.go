package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const refreshTimeout = 2 * time.Minute

// Refresher reloads a cached dataset.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler keeps the catalog cache fresh on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	refresher Refresher
	logger    *zap.Logger
}

// NewScheduler creates a scheduler that refreshes on the standard 5-field cron schedule.
func NewScheduler(schedule string, refresher Refresher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:      cron.New(),
		schedule:  schedule,
		refresher: refresher,
		logger:    logger,
	}
}

// Start registers the refresh job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.refreshCatalog); err != nil {
		return fmt.Errorf("schedule catalog refresh %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Error("failed to refresh catalog", zap.Error(err))
		return
	}
	s.logger.Debug("scheduled catalog refresh done")
}
