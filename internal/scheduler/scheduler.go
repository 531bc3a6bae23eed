package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Scheduler triggers capture runs on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger arbor.ILogger
}

// New creates a capture run scheduler using standard five-field cron
// expressions.
func New(logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Validate checks a cron expression without scheduling it.
func Validate(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// Start registers the run function on the schedule and begins the cron loop.
func (s *Scheduler) Start(schedule string, run func()) error {
	if _, err := s.cron.AddFunc(schedule, run); err != nil {
		return fmt.Errorf("failed to schedule capture runs: %w", err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Capture scheduler started")

	return nil
}

// Stop halts the cron loop. Runs already in progress are not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Capture scheduler stopped")
}
