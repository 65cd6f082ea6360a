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

// HTTPServerMetrics collects API-side request and push-channel metrics on a
// private registry so tests can construct isolated instances.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	wsConnections  prometheus.Gauge
	wsPushedEvents *prometheus.CounterVec
	queryTotal     *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	exportTotal    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalintel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legalintel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "legalintel",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	wsConnections := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "legalintel",
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Currently open push-channel connections.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	wsPushedEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalintel",
			Subsystem: "ws",
			Name:      "pushed_events_total",
			Help:      "Status updates delivered to push-channel clients.",
		},
		[]string{"service", "type"},
	)
	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalintel",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total interrogation requests by outcome.",
		},
		[]string{"service", "outcome"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "legalintel",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Interrogation execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	exportTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "legalintel",
			Subsystem: "export",
			Name:      "requests_total",
			Help:      "Total export requests by format and outcome.",
		},
		[]string{"service", "format", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		wsConnections,
		wsPushedEvents,
		queryTotal,
		queryDuration,
		exportTotal,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		wsConnections:   wsConnections,
		wsPushedEvents:  wsPushedEvents,
		queryTotal:      queryTotal,
		queryDuration:   queryDuration,
		exportTotal:     exportTotal,
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/documents/"):
		return "/api/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/api/v1/ws/"):
		return "/api/v1/ws/{user_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) ConnectionOpened() { m.wsConnections.Inc() }
func (m *HTTPServerMetrics) ConnectionClosed() { m.wsConnections.Dec() }

func (m *HTTPServerMetrics) RecordPushedEvent(service, eventType string) {
	if eventType == "" {
		eventType = "unknown"
	}
	m.wsPushedEvents.WithLabelValues(service, eventType).Inc()
}

func (m *HTTPServerMetrics) RecordQuery(service string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.queryTotal.WithLabelValues(service, outcome).Inc()
	m.queryDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordExport(service, format string, err error) {
	if format == "" {
		format = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.exportTotal.WithLabelValues(service, format, outcome).Inc()
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
