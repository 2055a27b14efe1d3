package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

const namespace = "intake"

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	normalizationTotal  *prometheus.CounterVec
	filingTotal         *prometheus.CounterVec
	intakeTotal         *prometheus.CounterVec
	catalogUpdatesTotal *prometheus.CounterVec
	catalogCacheTotal   *prometheus.CounterVec
	breakerState        *prometheus.GaugeVec
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
	normalizationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "normalizations_total",
			Help:      "Normalized brand and model fields by match source and action tier.",
		},
		[]string{"service", "field", "source", "tier"},
	)
	filingTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "filing_classifications_total",
			Help:      "Filing classifications by category.",
		},
		[]string{"service", "category"},
	)
	intakeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "intake_results_total",
			Help:      "Intake results by status.",
		},
		[]string{"service", "status"},
	)
	catalogUpdatesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "updates_total",
			Help:      "Catalog writes by action.",
		},
		[]string{"service", "action"},
	)
	catalogCacheTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "cache_lookups_total",
			Help:      "Catalog cache lookups by result.",
		},
		[]string{"service", "operation", "result"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		normalizationTotal,
		filingTotal,
		intakeTotal,
		catalogUpdatesTotal,
		catalogCacheTotal,
		breakerState,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		service:             service,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		normalizationTotal:  normalizationTotal,
		filingTotal:         filingTotal,
		intakeTotal:         intakeTotal,
		catalogUpdatesTotal: catalogUpdatesTotal,
		catalogCacheTotal:   catalogCacheTotal,
		breakerState:        breakerState,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
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
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordNormalization(service string, normalized *domain.NormalizedEquipment) {
	if normalized == nil {
		return
	}
	m.normalizationTotal.WithLabelValues(service, "brand", string(normalized.Brand.Source), string(normalized.Brand.Tier())).Inc()
	m.normalizationTotal.WithLabelValues(service, "model", string(normalized.Model.Source), string(normalized.Model.Tier())).Inc()
}

func (m *HTTPServerMetrics) RecordFilingCategory(service string, category domain.FilingCategory) {
	m.filingTotal.WithLabelValues(service, string(category)).Inc()
}

func (m *HTTPServerMetrics) RecordIntakeResult(service string, status domain.IntakeStatus) {
	if status == "" {
		status = "unknown"
	}
	m.intakeTotal.WithLabelValues(service, string(status)).Inc()
}

func (m *HTTPServerMetrics) RecordCatalogUpdate(service, action string) {
	m.catalogUpdatesTotal.WithLabelValues(service, action).Inc()
}

// RecordCatalogCache satisfies the catalog cache observer.
func (m *HTTPServerMetrics) RecordCatalogCache(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.catalogCacheTotal.WithLabelValues(m.service, operation, result).Inc()
}

// ObserveBreaker matches resilience.StateObserver.
func (m *HTTPServerMetrics) ObserveBreaker(operation string, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(m.service, operation).Set(breakerStateValue(to))
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
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
