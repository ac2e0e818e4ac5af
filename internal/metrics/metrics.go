package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slrgo_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slrgo_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	cpfParsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slrgo_cpf_parses_total",
			Help: "Total number of CPF ephemeris parses.",
		},
		[]string{"outcome"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slrgo_predictions_total",
			Help: "Total number of trajectory prediction requests.",
		},
		[]string{"mode", "outcome"},
	)

	passScansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "slrgo_pass_scans_total",
			Help: "Total number of pass-detection scans.",
		},
	)

	tleDatasetTargets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "slrgo_tle_dataset_targets",
			Help: "Number of targets in the loaded TLE dataset.",
		},
	)

	tleDatasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "slrgo_tle_dataset_age_seconds",
			Help: "Age of the loaded TLE dataset in seconds (-1 when none).",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(cpfParsesTotal)
	prometheus.MustRegister(predictionsTotal)
	prometheus.MustRegister(passScansTotal)
	prometheus.MustRegister(tleDatasetTargets)
	prometheus.MustRegister(tleDatasetAgeSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCPFParse counts a CPF parse attempt. Outcome is "ok" or "error".
func RecordCPFParse(outcome string) {
	cpfParsesTotal.WithLabelValues(outcome).Inc()
}

// RecordPrediction counts a trajectory prediction request by mode.
func RecordPrediction(mode, outcome string) {
	predictionsTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordPassScan counts a pass-detection scan.
func RecordPassScan() {
	passScansTotal.Inc()
}

// SetTLEDataset updates the dataset gauges after a catalog load or on
// the periodic age tick.
func SetTLEDataset(targets int, ageSeconds float64) {
	tleDatasetTargets.Set(float64(targets))
	tleDatasetAgeSeconds.Set(ageSeconds)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(r.URL.Path, r.Method).Observe(duration)
	})
}
