// Package metrics exposes Prometheus instrumentation for the screening
// pipeline. All collectors register on the default registry and are served
// from the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsProcessed counts finished documents by outcome
	// ("extracted" or "failed").
	DocumentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "donor_audit",
		Name:      "documents_processed_total",
		Help:      "Documents that finished processing, by outcome.",
	}, []string{"outcome"})

	// ChunksExtracted counts individual chunk extractions sent to the model.
	ChunksExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "donor_audit",
		Name:      "chunks_extracted_total",
		Help:      "Chart chunks successfully extracted.",
	})

	// ProcessDuration tracks end to end document processing time,
	// extraction through persisted screening result.
	ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "donor_audit",
		Name:      "document_process_duration_seconds",
		Help:      "Time to process one document end to end.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	// ScreeningOutcomes counts persisted eligibility outcomes by status.
	ScreeningOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "donor_audit",
		Name:      "screening_outcomes_total",
		Help:      "Persisted eligibility evaluations, by status.",
	}, []string{"status"})

	// QueueDepth gauges documents waiting in the in-process queue.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "donor_audit",
		Name:      "queue_depth",
		Help:      "Documents currently waiting in the processing queue.",
	})
)
