package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/costmap/pkg/lifecycle"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, trigger string) Summary
}

// Scheduler triggers a pipeline run at a fixed interval until shutdown.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler. A non-positive interval disables it.
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger.With("system", "scheduler"),
	}
}

// Start registers the scheduling loop with the lifecycle coordinator.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) {
	if s.interval <= 0 {
		s.logger.Info("scheduled processing disabled")
		return
	}
	s.logger.Info("scheduled processing enabled", "interval", s.interval)
	lc.Go(s.loop)
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	due := time.Now().Add(s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case tick := <-ticker.C:
			s.fire(ctx, tick, due)
			due = time.Now().Add(s.interval)
		}
	}
}

// fire runs the pipeline for one tick. A tick arriving more than half an
// interval after it was due is reported as past due.
func (s *Scheduler) fire(ctx context.Context, tick, due time.Time) {
	if late := tick.Sub(due); late > s.interval/2 {
		s.logger.Warn("scheduled run is past due", "late_by", late)
	}

	summary := s.runner.Run(ctx, TriggerSchedule)

	switch summary.Status {
	case StatusSuccess:
		if summary.TransactionsSaved > 0 {
			s.logger.Info(
				"scheduled run completed",
				"saved", summary.TransactionsSaved,
				"processing_time", summary.ProcessingTime,
			)
		} else {
			s.logger.Info("scheduled run completed, no new transactions")
		}
	case StatusBusy:
		s.logger.Warn("scheduled run skipped, previous run still in progress")
	default:
		s.logger.Error("scheduled run failed", "message", summary.Message)
	}
}
