// Package metrics exposes Prometheus instrumentation for the pipeline.
// All methods are nil-safe so instrumentation stays optional and can never
// alter pipeline results.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	documentsProcessed    *prometheus.CounterVec
	transactionsExtracted prometheus.Counter
	validationFailures    prometheus.Counter
	stageDuration         *prometheus.HistogramVec
}

// New registers the pipeline collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		documentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_documents_processed_total",
			Help: "Documents run through the extraction pipeline, by outcome.",
		}, []string{"status"}),
		transactionsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statement_transactions_extracted_total",
			Help: "Transactions stitched across all documents.",
		}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statement_validation_failures_total",
			Help: "Documents whose balance validation came back invalid.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statement_stage_duration_seconds",
			Help:    "Wall time per pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	reg.MustRegister(m.documentsProcessed, m.transactionsExtracted, m.validationFailures, m.stageDuration)
	return m
}

// DocumentProcessed records one finished document run.
func (m *Metrics) DocumentProcessed(success bool, transactions int) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.documentsProcessed.WithLabelValues(status).Inc()
	m.transactionsExtracted.Add(float64(transactions))
}

// ValidationFailed records a document-level invalid validation outcome.
func (m *Metrics) ValidationFailed() {
	if m == nil {
		return
	}
	m.validationFailures.Inc()
}

// ObserveStage records the duration of one pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
