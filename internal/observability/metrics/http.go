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
)

const namespace = "ctxr"

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	translationsTotal    *prometheus.CounterVec
	translationDuration  *prometheus.HistogramVec
	contextFallbackTotal *prometheus.CounterVec
	contextWindowWords   *prometheus.HistogramVec
	providerCallsTotal   *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec
	circuitBreakerState  *prometheus.GaugeVec
	rateLimitedTotal     *prometheus.CounterVec
	backpressureRejected *prometheus.CounterVec
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
	translationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translation",
			Name:      "requests_total",
			Help:      "Total translation requests by model, outcome and cache hit.",
		},
		[]string{"service", "endpoint", "model", "outcome", "cached"},
	)
	translationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "translation",
			Name:      "duration_seconds",
			Help:      "End-to-end translation duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"service", "endpoint"},
	)
	contextFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "context",
			Name:      "fallback_total",
			Help:      "Total context extractions where the selection was not found.",
		},
		[]string{"service", "endpoint"},
	)
	contextWindowWords := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "context",
			Name:      "window_words",
			Help:      "Distribution of context window sizes in words.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2000},
		},
		[]string{"service", "endpoint"},
	)
	providerCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "provider_calls_total",
			Help:      "Total translation provider calls by outcome.",
		},
		[]string{"service", "provider", "model", "outcome"},
	)
	providerCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "provider_call_duration_seconds",
			Help:      "Translation provider call duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"service", "provider"},
	)
	circuitBreakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)
	rateLimitedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by the API rate limiter.",
		},
		[]string{"service"},
	)
	backpressureRejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "backpressure_rejected_total",
			Help:      "Total requests rejected because the in-flight limit was reached.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		translationsTotal,
		translationDuration,
		contextFallbackTotal,
		contextWindowWords,
		providerCallsTotal,
		providerCallDuration,
		circuitBreakerState,
		rateLimitedTotal,
		backpressureRejected,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		service:              service,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		translationsTotal:    translationsTotal,
		translationDuration:  translationDuration,
		contextFallbackTotal: contextFallbackTotal,
		contextWindowWords:   contextWindowWords,
		providerCallsTotal:   providerCallsTotal,
		providerCallDuration: providerCallDuration,
		circuitBreakerState:  circuitBreakerState,
		rateLimitedTotal:     rateLimitedTotal,
		backpressureRejected: backpressureRejected,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
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

// normalizePath collapses document ids so label cardinality stays bounded.
func normalizePath(path string) string {
	const prefix = "/v1/documents/"
	if !strings.HasPrefix(path, prefix) || len(path) == len(prefix) {
		return path
	}
	rest := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return prefix + "{document_id}" + rest[idx:]
	}
	return prefix + "{document_id}"
}

func (m *HTTPServerMetrics) RecordTranslation(service, endpoint, model, outcome string, cached bool, duration time.Duration) {
	if model == "" {
		model = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.translationsTotal.WithLabelValues(service, endpoint, model, outcome, strconv.FormatBool(cached)).Inc()
	m.translationDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordContextWindow(service, endpoint string, found bool, words int) {
	if !found {
		m.contextFallbackTotal.WithLabelValues(service, endpoint).Inc()
	}
	if words >= 0 {
		m.contextWindowWords.WithLabelValues(service, endpoint).Observe(float64(words))
	}
}

// ObserveProviderCall satisfies llm.CallObserver.
func (m *HTTPServerMetrics) ObserveProviderCall(provider, model, outcome string, d time.Duration) {
	if model == "" {
		model = "unknown"
	}
	m.providerCallsTotal.WithLabelValues(m.service, provider, model, outcome).Inc()
	m.providerCallDuration.WithLabelValues(m.service, provider).Observe(d.Seconds())
}

// SetCircuitBreakerState is shaped to plug into resilience.Config.OnStateChange.
func (m *HTTPServerMetrics) SetCircuitBreakerState(operation, state string) {
	m.circuitBreakerState.WithLabelValues(m.service, operation).Set(breakerStateValue(state))
}

func (m *HTTPServerMetrics) RecordRateLimited(service string) {
	m.rateLimitedTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordBackpressureRejected(service string) {
	m.backpressureRejected.WithLabelValues(service).Inc()
}

func breakerStateValue(state string) float64 {
	switch strings.ToLower(state) {
	case "half-open", "half_open":
		return 1
	case "open":
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

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
