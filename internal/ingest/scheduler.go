package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron and drives the periodic ingest cycle.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	spec   string // cron spec, e.g. "@every 6h"
}

// NewScheduler creates a Scheduler that fires every intervalHours hours.
func NewScheduler(runner *Runner, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		runner: runner,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so the feed is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.runner.Run(ctx); err != nil {
			log.Printf("[scheduler] Ingest cycle error: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go func() {
		if err := s.runner.Run(ctx); err != nil {
			log.Printf("[scheduler] Initial ingest error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}
