package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cron run outcomes used as the "outcome" label.
const (
	CronOutcomeSuccess = "success"
	CronOutcomeFailure = "failure"
	CronOutcomeSkipped = "skipped"
)

// CronJobMetrics tracks the cron worker's maintenance jobs: how each run
// ended, how long it took and how many rows it touched.
type CronJobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shareit_cron_job_runs_total",
		Help: "Cron job runs by outcome.",
	}, []string{"job", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shareit_cron_job_duration_seconds",
		Help:    "Duration of executed cron jobs in seconds.",
		Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
	}, []string{"job"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shareit_cron_job_rows_total",
		Help: "Rows changed by cron jobs (bookings canceled, outbox rows purged).",
	}, []string{"job"})
	reg.MustRegister(runs, duration, rows)
	return &CronJobMetrics{runs: runs, duration: duration, rows: rows}
}

// ObserveRun records an executed job. A non-nil err counts as a failure and
// its rows are not added.
func (c *CronJobMetrics) ObserveRun(job string, elapsed time.Duration, rows int64, err error) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, CronOutcomeFailure).Inc()
		return
	}
	c.runs.WithLabelValues(job, CronOutcomeSuccess).Inc()
	if rows > 0 {
		c.rows.WithLabelValues(job).Add(float64(rows))
	}
}

// Skipped records a due run that another replica held the lock for.
func (c *CronJobMetrics) Skipped(job string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), CronOutcomeSkipped).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
