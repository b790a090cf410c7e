package parser

import (
	"context"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers a full pipeline run on a fixed cron cadence for the
// lifetime of the process. A tick that fires while the previous run is
// still in flight is skipped rather than overlapped, so at most one run
// touches the store at a time.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler wires the pipeline to the given cron spec, e.g.
// "*/10 * * * *" for every ten minutes.
func NewScheduler(pipeline *Pipeline, spec string) (*Scheduler, error) {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := c.AddFunc(spec, func() {
		// Run logs its own failures; a failed run just waits for the
		// next tick.
		_ = pipeline.Run(context.Background())
	})
	if err != nil {
		return nil, err
	}

	return &Scheduler{cron: c}, nil
}

// Start begins the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and returns a context that is done once any
// in-flight run has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
