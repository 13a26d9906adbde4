// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule repeats a job on a cron schedule until its context is
// cancelled. It backs the watch command.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pdiddy/sub2md/internal/logging"
)

// DefaultSpec runs once a day at midnight.
const DefaultSpec = "@daily"

// Job is one scheduled run. Errors are logged and do not stop the schedule.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron expression in a fixed time zone.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	location *time.Location
	log      logging.Logger
}

// New parses spec (five-field cron or a descriptor such as @daily or
// @every 6h) in the named time zone. An empty spec means DefaultSpec and an
// empty timezone means the local zone.
func New(spec, timezone string, log logging.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	loc := time.Local
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
		}
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Scheduler{spec: spec, schedule: sched, location: loc, log: log}, nil
}

// Spec returns the schedule expression.
func (s *Scheduler) Spec() string { return s.spec }

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// Run executes job on the schedule until ctx is done. With runNow the job
// also runs once immediately. A run still in progress when the next
// activation fires is not overlapped. Run waits for the active job to
// return before it returns.
func (s *Scheduler) Run(ctx context.Context, job Job, runNow bool) error {
	run := func() {
		started := time.Now()
		if err := job(ctx); err != nil {
			s.log.Error("scheduled run failed", "error", err, "elapsed", time.Since(started))
			return
		}
		s.log.Info("scheduled run finished", "elapsed", time.Since(started))
	}

	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(run))

	if runNow {
		run()
		if ctx.Err() != nil {
			return nil
		}
	}

	c.Start()
	s.log.Info("schedule started", "spec", s.spec, "timezone", s.location.String(), "next", s.Next(time.Now()))

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("schedule stopped")
	return nil
}
