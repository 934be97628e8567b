package service

import (
	"context"
	"log/slog"
	"time"
)

// Job runs fn every interval until the context is canceled, so shutdown can
// deterministically stop background work. Errors are logged, never fatal.
type Job struct {
	name     string
	interval time.Duration
	fn       func(context.Context) error
	log      *slog.Logger
}

func NewJob(name string, interval time.Duration, fn func(context.Context) error, log *slog.Logger) *Job {
	return &Job{name: name, interval: interval, fn: fn, log: log}
}

// Start launches the job goroutine. It returns immediately; the goroutine
// exits when ctx is canceled.
func (j *Job) Start(ctx context.Context) {
	go j.run(ctx)
}

func (j *Job) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("job.stopped", "job", j.name)
			return
		case <-ticker.C:
			if err := j.fn(ctx); err != nil {
				j.log.Warn("job.failed", "job", j.name, "err", err)
			}
		}
	}
}
