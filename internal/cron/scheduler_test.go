package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shareit/shareit-backend/pkg/logger"
	"github.com/shareit/shareit-backend/pkg/metrics"
)

type countingJob struct {
	name string
	rows int64
	err  error
	runs int
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) (int64, error) {
	j.runs++
	return j.rows, j.err
}

type memLocker struct {
	held     map[string]bool
	released []string
	ttls     map[string]time.Duration
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]bool{}, ttls: map[string]time.Duration{}}
}

func (m *memLocker) Lock(_ context.Context, job string, ttl time.Duration) (ReleaseFunc, error) {
	m.ttls[job] = ttl
	if m.held[job] {
		return nil, nil
	}
	m.held[job] = true
	return func(context.Context) error {
		m.held[job] = false
		m.released = append(m.released, job)
		return nil
	}, nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newScheduler(t *testing.T, locker jobLocker, c *clock, entries ...Entry) *Scheduler {
	t.Helper()
	s, err := NewScheduler(SchedulerParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Locker:  locker,
		Metrics: metrics.NewCronJobMetrics(prometheus.NewRegistry()),
		Entries: entries,
		Now:     c.Now,
	})
	require.NoError(t, err)
	return s
}

func TestSchedulerRunsEachJobOnItsOwnCadence(t *testing.T) {
	c := &clock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	expiry := &countingJob{name: BookingExpiryJobName, rows: 2}
	retention := &countingJob{name: OutboxRetentionJobName}
	locker := newMemLocker()
	s := newScheduler(t, locker, c,
		Entry{Job: expiry, Every: 5 * time.Minute},
		Entry{Job: retention, Every: 24 * time.Hour},
	)
	assert.Equal(t, time.Minute, s.tick)

	ctx := context.Background()
	s.runDue(ctx)
	assert.Equal(t, 1, expiry.runs)
	assert.Equal(t, 1, retention.runs)

	c.now = c.now.Add(time.Minute)
	s.runDue(ctx)
	assert.Equal(t, 1, expiry.runs)

	c.now = c.now.Add(4 * time.Minute)
	s.runDue(ctx)
	assert.Equal(t, 2, expiry.runs)
	assert.Equal(t, 1, retention.runs)

	assert.Equal(t, 5*time.Minute, locker.ttls[BookingExpiryJobName])
	assert.Equal(t, 24*time.Hour, locker.ttls[OutboxRetentionJobName])
	assert.Len(t, locker.released, 3)
}

func TestSchedulerContinuesAfterJobFailure(t *testing.T) {
	c := &clock{now: time.Now()}
	failing := &countingJob{name: BookingExpiryJobName, err: errors.New("db down")}
	next := &countingJob{name: OutboxRetentionJobName}
	locker := newMemLocker()
	s := newScheduler(t, locker, c, Entry{Job: failing, Every: time.Hour}, Entry{Job: next, Every: time.Hour})

	s.runDue(context.Background())
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, next.runs)
	assert.False(t, locker.held[BookingExpiryJobName], "lock released after failure")
}

func TestSchedulerSkipsJobHeldElsewhere(t *testing.T) {
	c := &clock{now: time.Now()}
	job := &countingJob{name: BookingExpiryJobName}
	locker := newMemLocker()
	locker.held[BookingExpiryJobName] = true
	s := newScheduler(t, locker, c, Entry{Job: job, Every: time.Minute})

	s.runDue(context.Background())
	assert.Zero(t, job.runs)
	assert.Empty(t, locker.released)
}

func TestNewSchedulerValidatesEntries(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
	job := &countingJob{name: BookingExpiryJobName}

	cases := map[string]SchedulerParams{
		"no logger":     {Locker: newMemLocker(), Entries: []Entry{{Job: job, Every: time.Minute}}},
		"no locker":     {Logger: logg, Entries: []Entry{{Job: job, Every: time.Minute}}},
		"no entries":    {Logger: logg, Locker: newMemLocker()},
		"zero period":   {Logger: logg, Locker: newMemLocker(), Entries: []Entry{{Job: job}}},
		"duplicate job": {Logger: logg, Locker: newMemLocker(), Entries: []Entry{{Job: job, Every: time.Minute}, {Job: job, Every: time.Hour}}},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewScheduler(params)
			assert.Error(t, err)
		})
	}
}
