package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Extraction metrics
	RowsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "districtmig_rows_extracted_total",
			Help: "Total number of rows extracted, by store and table",
		},
		[]string{"store", "table"},
	)

	TablesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "districtmig_tables_skipped_total",
			Help: "Total number of tables skipped during extraction, by reason",
		},
		[]string{"store", "reason"},
	)

	// Anonymization metrics
	RowsAnonymized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "districtmig_rows_anonymized_total",
			Help: "Total number of rows anonymized, by store and table",
		},
		[]string{"store", "table"},
	)

	FieldsAnonymized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "districtmig_fields_anonymized_total",
			Help: "Total number of fields anonymized, by strategy",
		},
		[]string{"strategy"},
	)

	PIILeaksDetected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "districtmig_pii_leaks_detected",
			Help: "Number of PII leaks detected in the most recent anonymization run, by column",
		},
		[]string{"column"},
	)

	// Validation metrics
	ValidationFindings = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "districtmig_validation_findings",
			Help: "Validation findings in the most recent run, by family and severity",
		},
		[]string{"family", "severity"},
	)

	// Load / rollback metrics
	RowsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "districtmig_rows_loaded_total",
			Help: "Total number of rows loaded into target stores, by store and table",
		},
		[]string{"store", "table"},
	)

	RowsRolledBack = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "districtmig_rows_rolled_back_total",
			Help: "Total number of rows deleted during rollback, by store and table",
		},
		[]string{"store", "table"},
	)

	// Phase / table duration metrics
	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "districtmig_phase_duration_seconds",
			Help:    "Duration of a pipeline phase in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"phase"},
	)

	TableDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "districtmig_table_duration_seconds",
			Help:    "Duration of a single-table extract/load operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "table", "operation"},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "districtmig_runs_total",
			Help: "Total number of migration runs, by outcome",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(RowsExtracted)
	prometheus.MustRegister(TablesSkipped)
	prometheus.MustRegister(RowsAnonymized)
	prometheus.MustRegister(FieldsAnonymized)
	prometheus.MustRegister(PIILeaksDetected)
	prometheus.MustRegister(ValidationFindings)
	prometheus.MustRegister(RowsLoaded)
	prometheus.MustRegister(RowsRolledBack)
	prometheus.MustRegister(PhaseDuration)
	prometheus.MustRegister(TableDuration)
	prometheus.MustRegister(RunsTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
