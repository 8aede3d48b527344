package recon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// SchedulerConfig configures the nightly reconciliation scheduler.
type SchedulerConfig struct {
	Reconciler *Reconciler
	RunHour    int
	RunMinute  int
	Location   *time.Location
	Logger     *logrus.Logger
}

// Scheduler runs the reconciler once a day at a fixed local time.
type Scheduler struct {
	reconciler *Reconciler
	runHour    int
	runMinute  int
	location   *time.Location
	logger     *logrus.Logger
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		reconciler: cfg.Reconciler,
		runHour:    clampHour(cfg.RunHour),
		runMinute:  clampMinute(cfg.RunMinute),
		location:   loc,
		logger:     logger,
	}
}

// Start blocks, running reconciliation daily until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.reconciler == nil {
		return
	}
	for {
		now := time.Now().In(s.location)
		next := s.nextRun(now)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.reconciler.Run(ctx); err != nil {
				s.logger.WithError(err).Error("recon scheduler run failed")
			}
		}
	}
}

func (s *Scheduler) nextRun(after time.Time) time.Time {
	after = after.In(s.location)
	target := time.Date(after.Year(), after.Month(), after.Day(), s.runHour, s.runMinute, 0, 0, s.location)
	if !target.After(after) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

func clampHour(hour int) int {
	if hour < 0 {
		return 0
	}
	if hour > 23 {
		return 23
	}
	return hour
}

func clampMinute(minute int) int {
	if minute < 0 {
		return 0
	}
	if minute > 59 {
		return 59
	}
	return minute
}
