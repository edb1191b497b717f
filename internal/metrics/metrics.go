package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ecofinds",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecofinds",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ecofinds",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecofinds",
			Name:      "orders_created_total",
			Help:      "Orders created, by path (checkout or direct).",
		},
		[]string{"source"},
	)

	orderStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecofinds",
			Name:      "order_status_changes_total",
			Help:      "Order status updates, by new status.",
		},
		[]string{"status"},
	)

	checkoutItemErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ecofinds",
			Subsystem: "checkout",
			Name:      "item_errors_total",
			Help:      "Cart lines skipped during checkout.",
		},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecofinds",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Order events handed to the broker.",
		},
		[]string{"type", "success"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ecofinds",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecofinds",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ordersCreated,
		orderStatusChanges,
		checkoutItemErrors,
		eventsPublished,
		rateLimited,
		cacheLookups,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted marks a request in flight and returns the func that
// records its outcome.
func RequestStarted() func(method, route string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, route string, status int) {
		httpInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		method = strings.ToUpper(method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordOrdersCreated counts n orders created through source.
func RecordOrdersCreated(source string, n int) {
	if n <= 0 {
		return
	}
	ordersCreated.WithLabelValues(source).Add(float64(n))
}

// RecordOrderStatusChange counts a status update to status.
func RecordOrderStatusChange(status string) {
	orderStatusChanges.WithLabelValues(status).Inc()
}

// RecordCheckoutItemErrors counts cart lines checkout could not turn into
// orders.
func RecordCheckoutItemErrors(n int) {
	if n > 0 {
		checkoutItemErrors.Add(float64(n))
	}
}

// RecordEventPublish counts one publish attempt of an event type.
func RecordEventPublish(eventType string, success bool) {
	eventsPublished.WithLabelValues(eventType, strconv.FormatBool(success)).Inc()
}

// RecordRateLimited counts one rejected request.
func RecordRateLimited() { rateLimited.Inc() }

// RecordCacheLookup counts a response cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}
