package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors plus the Go runtime ones.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "heroesfund",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "heroesfund",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "heroesfund",
			Subsystem: "moderation",
			Name:      "decisions_total",
			Help:      "Administrator decisions applied, by resulting status.",
		},
		[]string{"status", "trust_requested"},
	)

	trustIntents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "heroesfund",
			Subsystem: "trust",
			Name:      "intents_total",
			Help:      "Trust reduction intents by outcome.",
		},
		[]string{"outcome"},
	)

	friendships = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "heroesfund",
			Subsystem: "friendships",
			Name:      "transitions_total",
			Help:      "Friendship edge transitions by resulting state.",
		},
		[]string{"to"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		decisions,
		trustIntents,
		friendships,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordDecision(status string, trustRequested bool) {
	decisions.WithLabelValues(status, strconv.FormatBool(trustRequested)).Inc()
}

// Trust intent outcomes.
const (
	TrustEnqueued      = "enqueued"
	TrustEnqueueFailed = "enqueue_failed"
	TrustApplied       = "applied"
	TrustRetry         = "retry"
	TrustGaveUp        = "gave_up"
)

func RecordTrustIntent(outcome string) {
	trustIntents.WithLabelValues(outcome).Inc()
}

func RecordFriendship(to string) {
	friendships.WithLabelValues(to).Inc()
}
