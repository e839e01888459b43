package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"noisemap/backend/libs/laeq"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	computations    *prometheus.CounterVec
	samples         *prometheus.HistogramVec
	rejected        prometheus.Counter
	upstreamErrors  *prometheus.CounterVec
	liveSamples     prometheus.Counter
	liveConnections prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laeq_cache_hits_total",
			Help: "Report cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laeq_cache_misses_total",
			Help: "Report cache misses.",
		}),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laeq_computations_total",
			Help: "LAeq computations by window and outcome.",
		}, []string{"window", "outcome"}),
		samples: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "laeq_window_samples",
			Help:    "Samples inside the window per computation.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"window"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laeq_rejected_samples_total",
			Help: "Non-finite samples dropped before aggregation.",
		}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laeq_upstream_errors_total",
			Help: "Failed upstream calls by service.",
		}, []string{"service"}),
		liveSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laeq_live_samples_total",
			Help: "Samples received over MQTT.",
		}),
		liveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "laeq_live_connections",
			Help: "Open live websocket connections.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.cacheHits,
		m.cacheMisses,
		m.computations,
		m.samples,
		m.rejected,
		m.upstreamErrors,
		m.liveSamples,
		m.liveConnections,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records count and latency for route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		m.requests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// Computed records a finished computation. outcome is "ok", "no_data" or "error".
func (m *Metrics) Computed(w laeq.Window, outcome string, res laeq.Result) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(string(w), outcome).Inc()
	if outcome == "ok" {
		m.samples.WithLabelValues(string(w)).Observe(float64(res.Count))
		m.rejected.Add(float64(res.Rejected))
	}
}

func (m *Metrics) UpstreamError(service string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(service).Inc()
}

func (m *Metrics) LiveSample() {
	if m == nil {
		return
	}
	m.liveSamples.Inc()
}

func (m *Metrics) LiveConnections(delta float64) {
	if m == nil {
		return
	}
	m.liveConnections.Add(delta)
}
