// Package metrics exposes pipeline counters and latencies to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/screenwiper/constants"
)

const namespace = "screenwiper"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	processed     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	ocrConfidence prometheus.Histogram
	batchSize     prometheus.Histogram
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_processed_total",
			Help:      "Screenshots triaged, by resulting category",
		}, []string{"category"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_failures_total",
			Help:      "Screenshots that failed, by pipeline stage",
		}, []string{"stage"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent per pipeline stage",
			Buckets:   []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		ocrConfidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_confidence",
			Help:      "Estimated OCR confidence in 0..1",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Images per analyze request",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
	reg.MustRegister(m.processed, m.failures, m.stageDuration, m.ocrConfidence, m.batchSize)
	return m
}

func (m *Metrics) RecordProcessed(category constants.CategoryID) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(category.String()).Inc()
}

func (m *Metrics) RecordFailure(stage constants.Stage) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(stage)).Inc()
}

func (m *Metrics) ObserveStage(stage constants.Stage, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

func (m *Metrics) ObserveOCRConfidence(c float32) {
	if m == nil {
		return
	}
	m.ocrConfidence.Observe(float64(c))
}

func (m *Metrics) ObserveBatch(n int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(n))
}
