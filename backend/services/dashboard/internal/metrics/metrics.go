package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "equipviz"

// Metrics holds the dashboard's collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	liveClients     prometheus.Gauge
}

// New registers the dashboard collectors plus Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests sent to the equipment API.",
		}, []string{"endpoint", "method", "status"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of equipment API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests served by the dashboard.",
		}, []string{"method", "status"}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_clients",
			Help:      "Connected WebSocket clients.",
		}),
	}
	m.registry.MustRegister(
		m.backendRequests,
		m.backendLatency,
		m.httpRequests,
		m.liveClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one equipment API call. Status 0 means no response.
func (m *Metrics) ObserveRequest(endpoint, method string, status int, elapsed time.Duration) {
	m.backendRequests.WithLabelValues(endpoint, method, statusLabel(status)).Inc()
	m.backendLatency.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}

// ObserveHTTP records one request served by the dashboard.
func (m *Metrics) ObserveHTTP(method string, status int) {
	m.httpRequests.WithLabelValues(method, statusLabel(status)).Inc()
}

// SetLiveClients sets the WebSocket client gauge.
func (m *Metrics) SetLiveClients(n int) {
	m.liveClients.Set(float64(n))
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
