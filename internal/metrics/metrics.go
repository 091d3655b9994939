// Package metrics exposes verification outcomes as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/chat-archive/uiverify/internal/verify"
)

// Recorder tracks run outcomes on a private registry so it can be written
// out as a node-exporter textfile after every run.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
	lastTimestamp prometheus.Gauge
	runDuration   prometheus.Histogram
	stepDuration  *prometheus.GaugeVec
	stepFailures  *prometheus.CounterVec
	artifactBytes *prometheus.GaugeVec

	logger *zap.Logger
}

// NewRecorder creates a recorder with every metric prefixed by namespace.
func NewRecorder(namespace string, logger *zap.Logger) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Verification runs by outcome.",
		}, []string{"outcome"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the most recent run passed, 0 otherwise.",
		}),
		lastTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the most recent run finished.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run from launch to release.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		}),
		stepDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of each step in the most recent run.",
		}, []string{"step"}),
		stepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Runs that failed, by the step they failed at.",
		}, []string{"step"}),
		artifactBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of each screenshot written by the most recent run.",
		}, []string{"artifact"}),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// Observe records a finished run.
func (r *Recorder) Observe(res *verify.Result) {
	outcome := "passed"
	if !res.Passed() {
		outcome = "failed"
		r.stepFailures.WithLabelValues(verify.FailedStep(res.Err)).Inc()
	}
	r.runsTotal.WithLabelValues(outcome).Inc()
	if res.Passed() {
		r.lastSuccess.Set(1)
	} else {
		r.lastSuccess.Set(0)
	}
	r.lastTimestamp.Set(float64(res.FinishedAt.Unix()))
	r.runDuration.Observe(res.Duration().Seconds())

	r.stepDuration.Reset()
	for _, s := range res.Steps {
		if s.Status == verify.StepSkipped {
			continue
		}
		r.stepDuration.WithLabelValues(s.Name).Set(s.Duration.Seconds())
	}
	r.artifactBytes.Reset()
	for _, a := range res.Artifacts {
		r.artifactBytes.WithLabelValues(a.Name).Set(float64(a.Bytes))
	}
}

// WriteTextfile writes the current metrics in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	r.logger.Debug("Metrics written", zap.String("path", path))
	return nil
}
