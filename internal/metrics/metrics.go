package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cleared-dev/spendview/internal/model"
)

// Run outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeEmpty        = "empty"
	OutcomeInvalidRange = "invalid_range"
	OutcomeIngestError  = "ingest_error"
)

// File outcomes.
const (
	FileParsed    = "parsed"
	FileDuplicate = "duplicate"
)

// Metrics records pipeline and HTTP counters on a registry.
type Metrics struct {
	filesIngested *prometheus.CounterVec
	transactions  *prometheus.CounterVec
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	spendTotal    prometheus.Histogram
	apiErrors     *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		filesIngested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendview_files_ingested_total",
				Help: "Uploaded CSV files by ingestion outcome",
			},
			[]string{"outcome"},
		),
		transactions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendview_transactions_total",
				Help: "Classified transactions by partition",
			},
			[]string{"kind"},
		),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendview_runs_total",
				Help: "Summary runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spendview_run_duration_milliseconds",
				Help:    "Summary run duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		spendTotal: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spendview_spend_total_dollars",
				Help:    "Grand total spend per successful run",
				Buckets: prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
		apiErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendview_api_errors_total",
				Help: "API errors by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
	}
}

// RecordFile counts one upload with the given outcome.
func (m *Metrics) RecordFile(outcome string) {
	m.filesIngested.WithLabelValues(outcome).Inc()
}

// RecordPartitions counts classified transactions per kind.
func (m *Metrics) RecordPartitions(p model.Partitions) {
	m.transactions.WithLabelValues(string(model.KindCredit)).Add(float64(len(p.Credits)))
	m.transactions.WithLabelValues(string(model.KindDebit)).Add(float64(len(p.Debits)))
	m.transactions.WithLabelValues(string(model.KindZero)).Add(float64(len(p.Zeros)))
}

// RecordRun counts a run and observes its duration.
func (m *Metrics) RecordRun(outcome string, elapsed time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(float64(elapsed.Milliseconds()))
}

// RecordSpend observes a run's grand total.
func (m *Metrics) RecordSpend(total float64) {
	m.spendTotal.Observe(total)
}

// RecordAPIError counts a failed HTTP request.
func (m *Metrics) RecordAPIError(endpoint, status string) {
	m.apiErrors.WithLabelValues(endpoint, status).Inc()
}

// Runs exposes the run counter, for tests.
func (m *Metrics) Runs() *prometheus.CounterVec { return m.runs }

// Files exposes the file counter, for tests.
func (m *Metrics) Files() *prometheus.CounterVec { return m.filesIngested }

// Transactions exposes the transaction counter, for tests.
func (m *Metrics) Transactions() *prometheus.CounterVec { return m.transactions }

// APIErrors exposes the API error counter, for tests.
func (m *Metrics) APIErrors() *prometheus.CounterVec { return m.apiErrors }
