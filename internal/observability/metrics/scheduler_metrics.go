// Package metrics captures billing scheduler health signals.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped on every scheduler metric.
type Config struct {
	ServiceName string
	Environment string
}

// SchedulerMetrics aggregates the counters and histograms the scheduler
// driver and jobs report into.
type SchedulerMetrics struct {
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	jobErrors      *prometheus.CounterVec
	ticksSkipped   *prometheus.CounterVec
	batchProcessed *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	throttled      *prometheus.CounterVec
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// SchedulerWithConfig returns the singleton scheduler metrics registry using config labels.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return schedulerMetrics
}

// ResetSchedulerMetricsForTest resets the scheduler metrics singleton for tests.
func ResetSchedulerMetricsForTest() {
	schedulerMetricsOnce = sync.Once{}
	schedulerMetrics = nil
}

func newSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "van-manager"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "vanmanager_scheduler_job_runs_total",
		Help:        "Scheduler job runs by name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "vanmanager_scheduler_job_duration_seconds",
		Help:        "Scheduler job latency to keep each tick well inside its interval.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "vanmanager_scheduler_job_errors_total",
		Help:        "Scheduler job runs that ended with at least one error.",
		ConstLabels: constLabels,
	}, []string{"job"})
	ticksSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "vanmanager_scheduler_ticks_skipped_total",
		Help:        "Ticks skipped because the previous run of the task was still in flight.",
		ConstLabels: constLabels,
	}, []string{"job"})
	batchProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "vanmanager_scheduler_batch_processed_total",
		Help:        "Items processed per job to gauge billing throughput.",
		ConstLabels: constLabels,
	}, []string{"job", "resource"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "vanmanager_charge_transition_total",
		Help:        "Charge status transitions performed by the scheduler.",
		ConstLabels: constLabels,
	}, []string{"from", "to"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "vanmanager_notifications_total",
		Help:        "Notification attempts by channel and delivery status.",
		ConstLabels: constLabels,
	}, []string{"channel", "status"})
	throttled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "vanmanager_notifications_throttled_total",
		Help:        "Notifications suppressed by the throttle guard.",
		ConstLabels: constLabels,
	}, []string{"channel"})

	registerer.MustRegister(
		jobRuns,
		jobDuration,
		jobErrors,
		ticksSkipped,
		batchProcessed,
		transitions,
		notifications,
		throttled,
	)

	return &SchedulerMetrics{
		jobRuns:        jobRuns,
		jobDuration:    jobDuration,
		jobErrors:      jobErrors,
		ticksSkipped:   ticksSkipped,
		batchProcessed: batchProcessed,
		transitions:    transitions,
		notifications:  notifications,
		throttled:      throttled,
	}
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) IncJobError(job string) {
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncTickSkipped(job string) {
	m.ticksSkipped.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) AddBatchProcessed(job, resource string, count int) {
	if count <= 0 {
		return
	}
	m.batchProcessed.WithLabelValues(job, resource).Add(float64(count))
}

func (m *SchedulerMetrics) IncChargeTransition(from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *SchedulerMetrics) IncNotification(channel, status string) {
	m.notifications.WithLabelValues(channel, status).Inc()
}

func (m *SchedulerMetrics) IncNotificationThrottled(channel string) {
	m.throttled.WithLabelValues(channel).Inc()
}
