// Package scheduler runs housekeeping jobs on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hray3182/ClassSync/internal/session"
)

// Job is one unit of periodic work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	jobs          []Job
	checkInterval time.Duration
	logger        *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		jobs:          jobs,
		checkInterval: interval,
		logger:        logger,
	}
}

// Start runs every job once, then on each tick, until ctx ends.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started", zap.Duration("interval", s.checkInterval), zap.Int("jobs", len(s.jobs)))
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	s.check(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Scheduler) check(ctx context.Context) {
	for _, job := range s.jobs {
		if err := job.Run(ctx); err != nil {
			s.logger.Error("job failed", zap.String("job", job.Name), zap.Error(err))
		}
	}
}

// ExpireSessions drops sessions idle for longer than idle. Their ephemeral
// events are gone with them; the durable rows remain.
func ExpireSessions(m *session.Manager, idle time.Duration, logger *zap.Logger) Job {
	return Job{
		Name: "expire-sessions",
		Run: func(context.Context) error {
			if n := m.Expire(idle); n > 0 && logger != nil {
				logger.Info("expired idle sessions", zap.Int("count", n), zap.Int("remaining", m.Len()))
			}
			return nil
		},
	}
}
