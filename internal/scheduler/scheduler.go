// Package scheduler triggers the nightly background maintenance pass.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mholecy/photo-triage/internal/scan"
)

// Scheduler runs the background pass on a cron schedule, each run time-boxed
// to the configured budget. The next occurrence is registered before a run
// starts, so a crashed or overlong pass never loses its slot.
type Scheduler struct {
	cron       *cron.Cron
	background *scan.Background
	budget     time.Duration
	logger     *slog.Logger
}

// New creates a scheduler for the given cron expression (standard 5-field
// syntax) and per-run time budget.
func New(background *scan.Background, schedule string, budget time.Duration, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(),
		background: background,
		budget:     budget,
		logger:     logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins scheduling. Returns immediately; runs happen on the cron's
// own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	if entries := s.cron.Entries(); len(entries) > 0 {
		s.logger.Info("nightly maintenance scheduled", "next", entries[0].Next.Format(time.RFC3339))
	}
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.budget+time.Minute)
	defer cancel()

	deadline := time.Now().Add(s.budget)
	report, err := s.background.Run(ctx, deadline)
	if err != nil {
		s.logger.Error("nightly maintenance failed", "error", err)
		return
	}
	s.logger.Info("nightly maintenance done",
		"checked", report.Checked,
		"analyzed", report.Analyzed,
		"clustered", report.Clustered,
	)
}
