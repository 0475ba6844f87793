package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tartampluch/go-sambat/internal/config"
)

// metrics groups the collectors exposed on /metrics.
// Each server owns its registry so tests can build many servers side by side.
type metrics struct {
	registry     *prometheus.Registry
	conversions  *prometheus.CounterVec
	feedRequests *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      config.MetricConversions,
			Help:      "Date conversions served, by direction and result.",
		}, []string{config.MetricLabelDirection, config.MetricLabelResult}),
		feedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      config.MetricFeedRequests,
			Help:      "Requests for the IPO calendar feed, by HTTP status.",
		}, []string{config.MetricLabelStatus}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.MetricsNamespace,
			Name:      config.MetricRequestSeconds,
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{config.MetricLabelRoute, config.MetricLabelStatus}),
	}
	m.registry.MustRegister(m.conversions, m.feedRequests, m.duration)
	return m
}

func (m *metrics) conversion(direction, result string) {
	m.conversions.WithLabelValues(direction, result).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument observes the latency of every routed request, labelled by route template.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.duration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
