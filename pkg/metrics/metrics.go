// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "omnichunk"

var (
	ChunksProduced = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "split",
			Name:      "chunks",
			Help:      "Number of chunks produced per split",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50, 100},
		},
	)

	SplitInputSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "split",
			Name:      "input_characters",
			Help:      "Size of split inputs in characters",
			Buckets:   prometheus.ExponentialBuckets(1000, 4, 8),
		},
	)

	MergeBoundaries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "merge",
			Name:      "boundaries_total",
			Help:      "Chunk boundaries merged, by outcome",
		},
		[]string{"outcome"}, // collapsed / concatenated
	)

	LengthValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "total",
			Help:      "Length validations, by result",
		},
		[]string{"result"}, // valid / invalid
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs, by status",
		},
		[]string{"status"},
	)

	PipelineFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "chunk_fallbacks_total",
			Help:      "Chunks whose edit was discarded in favour of the original text",
		},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	IntakeFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "files_total",
			Help:      "Manuscript files read, by extension and encoding",
		},
		[]string{"extension", "encoding"},
	)
)

// ObserveMerge records the outcome of every boundary of one merge.
func ObserveMerge(collapsed []int) {
	for _, n := range collapsed {
		if n > 0 {
			MergeBoundaries.WithLabelValues("collapsed").Inc()
		} else {
			MergeBoundaries.WithLabelValues("concatenated").Inc()
		}
	}
}

// ObserveValidation records one length validation.
func ObserveValidation(valid bool) {
	if valid {
		LengthValidations.WithLabelValues("valid").Inc()
		return
	}
	LengthValidations.WithLabelValues("invalid").Inc()
}
