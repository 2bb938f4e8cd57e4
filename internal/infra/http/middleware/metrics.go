package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of leads created",
		},
		[]string{"origin"}, // api, upsert
	)

	duplicatesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_duplicate_cnpj_rejected_total",
			Help: "Total number of operations rejected by the CNPJ uniqueness index",
		},
	)

	importRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_import_runs_total",
			Help: "Total number of batch import runs",
		},
		[]string{"mode"},
	)

	importRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_import_rows_total",
			Help: "Total number of imported rows by outcome",
		},
		[]string{"outcome"}, // created, updated, skipped, error
	)

	leadsReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_reconciled_total",
			Help: "Total number of duplicate leads removed by the reconciliation sweep",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordLeadCreated(origin string) {
	leadsCreated.WithLabelValues(origin).Inc()
}

func RecordDuplicateRejected() {
	duplicatesRejected.Inc()
}

func RecordImportRun(mode string, created, updated, skipped, failed int) {
	importRuns.WithLabelValues(mode).Inc()
	importRows.WithLabelValues("created").Add(float64(created))
	importRows.WithLabelValues("updated").Add(float64(updated))
	importRows.WithLabelValues("skipped").Add(float64(skipped))
	importRows.WithLabelValues("error").Add(float64(failed))
}

func RecordLeadsReconciled(n int) {
	leadsReconciled.Add(float64(n))
}
