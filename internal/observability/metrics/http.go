package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

const namespace = "income"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	predictionsTotal   *prometheus.CounterVec
	predictionDuration *prometheus.HistogramVec
	cacheResultsTotal  *prometheus.CounterVec
	batchRowsTotal     *prometheus.CounterVec
	rateLimitedTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	predictionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "total",
			Help:      "Predictions by label and outcome.",
		},
		[]string{"service", "source", "label", "outcome"},
	)
	predictionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "duration_seconds",
			Help:      "End-to-end assemble, encode and classify duration.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"service", "source"},
	)
	cacheResultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "results_total",
			Help:      "Successful predictions by cache result.",
		},
		[]string{"service", "result"},
	)
	batchRowsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "rows_total",
			Help:      "Workbook rows processed by status.",
		},
		[]string{"service", "status"},
	)
	rateLimitedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
		[]string{"service", "path"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		predictionsTotal,
		predictionDuration,
		cacheResultsTotal,
		batchRowsTotal,
		rateLimitedTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		predictionsTotal:   predictionsTotal,
		predictionDuration: predictionDuration,
		cacheResultsTotal:  cacheResultsTotal,
		batchRowsTotal:     batchRowsTotal,
		rateLimitedTotal:   rateLimitedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterBreakerState exports 1 while the classifier breaker is not closed.
func (m *HTTPServerMetrics) RegisterBreakerState(service string, state func() string) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "classifier",
			Name:        "breaker_open",
			Help:        "1 when the classifier circuit breaker is open or half-open.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		func() float64 {
			if state() == "closed" {
				return 0
			}
			return 1
		},
	))
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case path == "/v1/predictions/batch":
		return path
	case strings.HasPrefix(path, "/v1/predictions/"):
		return "/v1/predictions/{id}"
	default:
		return path
	}
}

// RecordPrediction counts one prediction attempt. label is empty on failure.
func (m *HTTPServerMetrics) RecordPrediction(service, source string, label domain.Label, cached bool, duration time.Duration, err error) {
	outcome := Outcome(err)
	if label == "" {
		label = "none"
	}
	m.predictionsTotal.WithLabelValues(service, source, string(label), outcome).Inc()
	m.predictionDuration.WithLabelValues(service, source).Observe(duration.Seconds())
	if err != nil {
		return
	}
	result := "miss"
	if cached {
		result = "hit"
	}
	m.cacheResultsTotal.WithLabelValues(service, result).Inc()
}

func (m *HTTPServerMetrics) RecordBatch(service string, succeeded, failed int) {
	if succeeded > 0 {
		m.batchRowsTotal.WithLabelValues(service, "success").Add(float64(succeeded))
	}
	if failed > 0 {
		m.batchRowsTotal.WithLabelValues(service, "error").Add(float64(failed))
	}
}

func (m *HTTPServerMetrics) RecordRateLimited(service, path string) {
	m.rateLimitedTotal.WithLabelValues(service, normalizePath(path)).Inc()
}

// Outcome names the error kind for metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrUnknownCategory):
		return "unknown_category"
	case domain.IsKind(err, domain.ErrSchema):
		return "schema"
	case domain.IsKind(err, domain.ErrInference):
		return "inference"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	default:
		return "error"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
