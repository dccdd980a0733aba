// Package metrics exposes Prometheus instrumentation for training, request
// serving and upstream access.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skill_recommender"

// Recorder owns a registry and every collector registered on it.
type Recorder struct {
	registry *prometheus.Registry

	recommendDuration *prometheus.HistogramVec
	recommendResults  *prometheus.HistogramVec
	trainings         *prometheus.CounterVec
	catalogItems      *prometheus.GaugeVec
	upstreamDuration  *prometheus.HistogramVec
	upstreamErrors    *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates a Recorder with its own registry, including the Go runtime and
// process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		recommendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "Time spent building vectors, scoring and diversifying one request",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"kind"}),
		recommendResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_results",
			Help:      "Number of recommendations returned per request before truncation",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"kind"}),
		trainings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trainings_total",
			Help:      "Model trainings by kind and outcome",
		}, []string{"kind", "outcome"}),
		catalogItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_items",
			Help:      "Items in the last successfully trained catalog",
		}, []string{"kind"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of data API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Failed data API calls",
		}, []string{"endpoint"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.recommendDuration,
		r.recommendResults,
		r.trainings,
		r.catalogItems,
		r.upstreamDuration,
		r.upstreamErrors,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveTraining records one training attempt. The catalog gauge only moves
// on success.
func (r *Recorder) ObserveTraining(kind string, items int, err error) {
	if err != nil {
		r.trainings.WithLabelValues(kind, "error").Inc()
		return
	}
	r.trainings.WithLabelValues(kind, "success").Inc()
	r.catalogItems.WithLabelValues(kind).Set(float64(items))
}

// ObserveRecommendation records one served request.
func (r *Recorder) ObserveRecommendation(kind string, elapsed time.Duration, results int) {
	r.recommendDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	r.recommendResults.WithLabelValues(kind).Observe(float64(results))
}

// ObserveUpstream records one data API call.
func (r *Recorder) ObserveUpstream(endpoint string, elapsed time.Duration, err error) {
	r.upstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	if err != nil {
		r.upstreamErrors.WithLabelValues(endpoint).Inc()
	}
}

// ObserveHTTP records one handled HTTP request.
func (r *Recorder) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
