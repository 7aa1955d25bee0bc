package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron     *cron.Cron
	jobs     *Jobs
	logger   *slog.Logger
	schedule string
}

func NewScheduler(jobs *Jobs, logger *slog.Logger, reminderSchedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Scheduler{
		cron:     c,
		jobs:     jobs,
		logger:   logger,
		schedule: reminderSchedule,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.jobs.SendSubscriptionReminders); err != nil {
		s.logger.Error("failed to schedule subscription reminder job", "error", err)
		return err
	}
	s.logger.Info("scheduled subscription reminder job", "schedule", s.schedule)

	s.cron.Start()
	return nil
}

// Stop returns a context that is done once running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
