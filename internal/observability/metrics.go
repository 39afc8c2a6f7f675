package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/subscription-intake-service/internal/traffic"
)

// ServiceName labels logs and metrics.
const ServiceName = "subscription-intake-service"

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation.
	HTTPRequestsInFlight prometheus.Gauge

	// Subscription outcomes by result (accepted, rejected). Watch for: rejected share climbing after a form change.
	SubscriptionsTotal *prometheus.CounterVec

	// Rate limit denials on /subscriptions. Watch for: bots or a misbehaving client.
	RateLimitDeniedTotal prometheus.Counter

	trafficGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	SubscriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptionsTotal",
			Help: "Total number of subscription submissions by result",
		},
		[]string{"result"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of subscription requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		SubscriptionsTotal, RateLimitDeniedTotal,
	)
}

// RecordSubscription counts a subscription outcome in both the counter and the sliding window.
func RecordSubscription(o traffic.Outcome) {
	traffic.Record(o)
	switch o {
	case traffic.Denied:
		RateLimitDeniedTotal.Inc()
	default:
		SubscriptionsTotal.WithLabelValues(o.String()).Inc()
	}
}

// RegisterTrafficGauges registers sliding-window gauges over subscription outcomes.
// Call once from main after config load; later calls are no-ops.
func RegisterTrafficGauges(window time.Duration) {
	trafficGaugesOnce.Do(func() {
		gauge := func(name, help string, o traffic.Outcome) prometheus.Collector {
			return prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{Name: name, Help: help},
				func() float64 { return float64(traffic.Count(o, window)) },
			)
		}
		registry.MustRegister(
			gauge("subscriptionsAcceptedInWindow", "Accepted subscriptions in sliding window", traffic.Accepted),
			gauge("subscriptionsRejectedInWindow", "400 responses on /subscriptions in sliding window", traffic.Rejected),
			gauge("rateLimitRejectsInWindow", "429 responses in sliding window; are we rejecting requests", traffic.Denied),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
