// Package metrics exposes Prometheus instrumentation for a generation run.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	samplesEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skybright_samples_evaluated_total",
		Help: "Total number of timestamps evaluated through the brightness model.",
	})

	samplesRetained = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skybright_samples_retained_total",
		Help: "Total number of samples retained in the output artifact.",
	})

	samplesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skybright_samples_dropped_total",
		Help: "Total number of samples dropped as interpolation-redundant.",
	})

	samplesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skybright_samples_skipped_total",
		Help: "Total number of candidate timestamps skipped by the sun-altitude double check.",
	})

	maskedLocations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skybright_masked_locations_total",
		Help: "Total number of per-sample location exclusions across the run.",
	})

	gridSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skybright_grid_locations",
		Help: "Number of sky locations in the spatial grid.",
	})

	progressPercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skybright_run_progress_percent",
		Help: "Progress of the current generation run, 0-100.",
	})

	evalDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skybright_evaluate_duration_seconds",
		Help:    "Per-timestamp brightness evaluation duration in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(samplesEvaluated)
	prometheus.MustRegister(samplesRetained)
	prometheus.MustRegister(samplesDropped)
	prometheus.MustRegister(samplesSkipped)
	prometheus.MustRegister(maskedLocations)
	prometheus.MustRegister(gridSize)
	prometheus.MustRegister(progressPercent)
	prometheus.MustRegister(evalDurationSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncSamplesEvaluated increments the evaluated-sample counter.
func IncSamplesEvaluated() { samplesEvaluated.Inc() }

// AddSamplesRetained adds to the retained-sample counter.
func AddSamplesRetained(n int) { samplesRetained.Add(float64(n)) }

// IncSamplesDropped increments the dropped-sample counter.
func IncSamplesDropped() { samplesDropped.Inc() }

// IncSamplesSkipped increments the sun-up skip counter.
func IncSamplesSkipped() { samplesSkipped.Inc() }

// AddMaskedLocations adds to the masked-location counter.
func AddMaskedLocations(n int) { maskedLocations.Add(float64(n)) }

// SetGridSize publishes the spatial grid size.
func SetGridSize(n int) { gridSize.Set(float64(n)) }

// SetProgress publishes run progress as a percentage.
func SetProgress(pct float64) { progressPercent.Set(pct) }

// ObserveEvalDuration records one per-timestamp evaluation duration.
func ObserveEvalDuration(d time.Duration) { evalDurationSeconds.Observe(d.Seconds()) }
