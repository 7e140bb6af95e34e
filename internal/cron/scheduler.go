package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shareit/shareit-backend/pkg/logger"
	"github.com/shareit/shareit-backend/pkg/metrics"
)

// maxTick bounds how late a due job may start.
const maxTick = time.Minute

// Job is one maintenance task. Run reports how many rows it changed.
type Job interface {
	Name() string
	Run(ctx context.Context) (int64, error)
}

// Entry schedules Job every Every.
type Entry struct {
	Job   Job
	Every time.Duration
}

type jobLocker interface {
	Lock(ctx context.Context, job string, ttl time.Duration) (ReleaseFunc, error)
}

type SchedulerParams struct {
	Logger  *logger.Logger
	Locker  jobLocker
	Metrics *metrics.CronJobMetrics
	Entries []Entry
	Now     func() time.Time
}

// Scheduler runs each entry on its own cadence. A run happens only on the
// replica that wins the job's lock; the lock lives for one period so a
// crashed replica cannot block the job longer than that.
type Scheduler struct {
	logg    *logger.Logger
	locker  jobLocker
	metrics *metrics.CronJobMetrics
	entries []Entry
	lastRun map[string]time.Time
	tick    time.Duration
	now     func() time.Time
}

func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Locker == nil {
		return nil, errors.New("job locker required")
	}
	if len(params.Entries) == 0 {
		return nil, errors.New("at least one cron job required")
	}
	tick := maxTick
	seen := make(map[string]struct{}, len(params.Entries))
	for _, entry := range params.Entries {
		if entry.Job == nil {
			return nil, errors.New("cron entry without job")
		}
		name := entry.Job.Name()
		if entry.Every <= 0 {
			return nil, fmt.Errorf("cron job %s: period must be positive", name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("cron job %s registered twice", name)
		}
		seen[name] = struct{}{}
		if entry.Every < tick {
			tick = entry.Every
		}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		logg:    params.Logger,
		locker:  params.Locker,
		metrics: params.Metrics,
		entries: params.Entries,
		lastRun: make(map[string]time.Time, len(params.Entries)),
		tick:    tick,
		now:     now,
	}, nil
}

// Run executes due jobs immediately and then on every tick until ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runDue(ctx)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now()
	for _, entry := range s.entries {
		name := entry.Job.Name()
		if last, ok := s.lastRun[name]; ok && now.Sub(last) < entry.Every {
			continue
		}
		s.lastRun[name] = now
		s.runEntry(ctx, entry)
	}
}

func (s *Scheduler) runEntry(ctx context.Context, entry Entry) {
	name := entry.Job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})

	release, err := s.locker.Lock(jobCtx, name, entry.Every)
	if err != nil {
		s.logg.Error(jobCtx, "cron lock unavailable", err)
		s.metrics.ObserveRun(name, 0, 0, err)
		return
	}
	if release == nil {
		s.logg.Info(jobCtx, "job held by another replica")
		s.metrics.Skipped(name)
		return
	}
	defer func() {
		if err := release(context.WithoutCancel(jobCtx)); err != nil {
			s.logg.Error(jobCtx, "failed to release cron lock", err)
		}
	}()

	start := time.Now()
	rows, err := entry.Job.Run(jobCtx)
	elapsed := time.Since(start)
	s.metrics.ObserveRun(name, elapsed, rows, err)

	jobCtx = s.logg.WithFields(jobCtx, map[string]any{"duration_ms": elapsed.Milliseconds(), "rows": rows})
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return
	}
	s.logg.Info(jobCtx, "job completed")
}
