// Package metrics exposes the devscout Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "devscout"

// Recorder owns the collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	quotaRemaining   prometheus.Gauge
	inference        *prometheus.CounterVec
	batchCandidates  *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace overrides the metric namespace.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithRegistry registers the collectors on registry instead of a fresh private one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// WithProcessCollectors adds the Go runtime and process collectors.
func WithProcessCollectors() Option {
	return func(r *Recorder) {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: defaultNamespace,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)

	r.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "github",
		Name:      "requests_total",
		Help:      "GitHub API requests by endpoint and status code.",
	}, []string{"endpoint", "status"})

	r.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "github",
		Name:      "request_duration_seconds",
		Help:      "GitHub API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	r.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by store and result.",
	}, []string{"store", "result"})

	r.quotaRemaining = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Subsystem: "github",
		Name:      "rate_limit_remaining",
		Help:      "Last observed remaining GitHub API quota.",
	})

	r.inference = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "ai",
		Name:      "inference_total",
		Help:      "Model calls by task and outcome (ai, fallback, error).",
	}, []string{"task", "outcome"})

	r.batchCandidates = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "compare",
		Name:      "candidates_total",
		Help:      "Batch comparison candidates by result (ranked, failed, skipped).",
	}, []string{"result"})

	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Served HTTP requests by route and status code.",
	}, []string{"route", "status"})

	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) UpstreamRequest(endpoint string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.upstreamRequests.WithLabelValues(endpoint, code).Inc()
	r.upstreamLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (r *Recorder) CacheLookup(store string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(store, result).Inc()
}

func (r *Recorder) QuotaRemaining(remaining int) {
	if r == nil {
		return
	}
	r.quotaRemaining.Set(float64(remaining))
}

func (r *Recorder) Inference(task, outcome string) {
	if r == nil {
		return
	}
	r.inference.WithLabelValues(task, outcome).Inc()
}

func (r *Recorder) BatchCandidate(result string) {
	if r == nil {
		return
	}
	r.batchCandidates.WithLabelValues(result).Inc()
}

func (r *Recorder) HTTPRequest(route string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
