package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	searchSteps     prometheus.Histogram
	searchFailures  prometheus.Counter
	insightRequests *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searchSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taqvim_first_day_search_steps",
			Help:    "Days stepped by the first-day-of-month search",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 30, 60},
		}),
		searchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taqvim_first_day_search_failures_total",
			Help: "First-day searches that failed to converge or convert",
		}),
		insightRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taqvim_insight_requests_total",
			Help: "Daily insight requests by outcome",
		}, []string{"outcome"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		m.searchSteps,
		m.searchFailures,
		m.insightRequests,
		m.requestsTotal,
		m.requestDuration,
	)
	return m
}

// ObserveSearch matches jalali.WithSearchObserver
func (m *Metrics) ObserveSearch(steps int, err error) {
	if err != nil {
		m.searchFailures.Inc()
		return
	}
	m.searchSteps.Observe(float64(steps))
}

// InsightRequest counts an insight request with outcome ok, fallback or error
func (m *Metrics) InsightRequest(outcome string) {
	m.insightRequests.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Wrap records request counts and latency for a handler under a fixed path label
func (m *Metrics) Wrap(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		m.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
