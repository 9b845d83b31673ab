package muxhandlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitalvas/veloz/mux"
)

// DefaultMetricsNamespace is used when MetricsConfig.Namespace is empty.
const DefaultMetricsNamespace = "veloz"

// unroutedLabel is the controller and action label of requests that were
// not routed.
const unroutedLabel = "none"

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace. Defaults to DefaultMetricsNamespace.
	Namespace string

	// Subsystem is the metrics subsystem.
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Defaults to prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// MetricsMiddleware returns a middleware that records Prometheus metrics for
// every request:
//
//   - <namespace>_http_requests_total: counter by controller, action, method and code
//   - <namespace>_http_request_duration_seconds: histogram by controller and action
//   - <namespace>_http_requests_in_flight: gauge of requests being served
//
// Collectors already registered with an identical description are reused,
// so several applications may share a registry.
func MetricsMiddleware(cfg MetricsConfig) (mux.MiddlewareFunc, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultMetricsNamespace
	}
	if cfg.Buckets == nil {
		cfg.Buckets = prometheus.DefBuckets
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}

	m, err := newHTTPMetrics(cfg)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.inflight.Inc()
			defer m.inflight.Dec()

			start := time.Now()
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r)

			ctrl, action := unroutedLabel, unroutedLabel
			if a, ok := mux.CurrentAction(r); ok {
				ctrl, action = a.Controller(), a.Name()
			}

			m.requests.WithLabelValues(ctrl, action, r.Method, strconv.Itoa(sw.status)).Inc()
			m.duration.WithLabelValues(ctrl, action).Observe(time.Since(start).Seconds())
		})
	}, nil
}

func newHTTPMetrics(cfg MetricsConfig) (*httpMetrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   cfg.Namespace,
		Subsystem:   cfg.Subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by controller action and status code",
		ConstLabels: cfg.ConstLabels,
	}, []string{"controller", "action", "method", "code"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   cfg.Namespace,
		Subsystem:   cfg.Subsystem,
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		ConstLabels: cfg.ConstLabels,
		Buckets:     cfg.Buckets,
	}, []string{"controller", "action"})

	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   cfg.Namespace,
		Subsystem:   cfg.Subsystem,
		Name:        "http_requests_in_flight",
		Help:        "Number of HTTP requests being served",
		ConstLabels: cfg.ConstLabels,
	})

	var err error
	m := &httpMetrics{}

	if m.requests, err = register(cfg.Registry, requests); err != nil {
		return nil, err
	}
	if m.duration, err = register(cfg.Registry, duration); err != nil {
		return nil, err
	}
	if m.inflight, err = register(cfg.Registry, inflight); err != nil {
		return nil, err
	}

	return m, nil
}

// register registers c, returning the existing collector when an identical
// one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		var zero C
		return zero, err
	}

	return c, nil
}
