// Package metrics records the outcome of one watch run and pushes it to a
// Prometheus pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	// MetricsNamespace is the namespace for all run metrics.
	MetricsNamespace = "frontpagewatch"

	// MetricsSubsystem is the subsystem for run metrics.
	MetricsSubsystem = "run"
)

// Recorder holds the gauges for a single run. A run is a batch job, so every
// value is a gauge describing the last run rather than a running counter.
type Recorder struct {
	registry *prometheus.Registry

	Success           prometheus.Gauge
	DurationSeconds   prometheus.Gauge
	LastSuccess       prometheus.Gauge
	CredentialRefresh prometheus.Gauge
	Items             *prometheus.GaugeVec
	Dispositions      *prometheus.GaugeVec
	Submissions       *prometheus.GaugeVec
	StageFailures     *prometheus.GaugeVec
}

// NewRecorder creates a Recorder on its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	r := &Recorder{registry: reg}

	r.Success = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "success",
		Help:      "1 if the last run completed, 0 otherwise",
	})
	r.DurationSeconds = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "duration_seconds",
		Help:      "Wall time of the last run in seconds",
	})
	r.LastSuccess = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last completed run",
	})
	r.CredentialRefresh = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "credential_refreshed",
		Help:      "1 if the last run had to refresh the bearer token",
	})
	r.Items = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "items",
		Help:      "Items per reconciliation set in the last run",
	}, []string{"set"})
	r.Dispositions = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "dispositions",
		Help:      "Removed items per disposition class in the last run",
	}, []string{"class"})
	r.Submissions = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "submissions",
		Help:      "Re-submissions in the last run by result",
	}, []string{"result"})
	r.StageFailures = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystem,
		Name:      "stage_failed",
		Help:      "1 for the stage that aborted the last run",
	}, []string{"stage"})

	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Succeeded marks the run as completed at now.
func (r *Recorder) Succeeded(now time.Time, took time.Duration) {
	r.Success.Set(1)
	r.DurationSeconds.Set(took.Seconds())
	r.LastSuccess.Set(float64(now.Unix()))
}

// Failed marks the run as aborted in stage.
func (r *Recorder) Failed(stage string, took time.Duration) {
	r.Success.Set(0)
	r.DurationSeconds.Set(took.Seconds())
	r.StageFailures.WithLabelValues(stage).Set(1)
}

// Push sends every metric to the pushgateway at url, replacing the previous
// values for job.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
