// Package metrics defines and registers the Prometheus metrics of the
// approval client. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry on package init via
// promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docapprove"

// ── Request metrics ───────────────────────────────────────────────────────────

// RequestsTotal counts requests issued by the resource client.
// Labels:
//   - method: HTTP method
//   - outcome: status class ("2xx", "4xx", "5xx") or "network"
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_requests_total",
		Help:      "Total number of requests issued to the backend, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// RequestDuration measures round-trip time of backend requests.
// Label:
//   - method: HTTP method
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "client_request_duration_seconds",
		Help:      "Duration of backend requests from dispatch to response body read.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionInvalidationsTotal counts stored tokens cleared by the client.
// Label:
//   - reason: "unauthorized" (server answered 401) or "logout"
var SessionInvalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_invalidations_total",
		Help:      "Total number of times the stored session token was cleared.",
	},
	[]string{"reason"},
)

// Outcome maps a status code to its RequestsTotal label. Zero means no response.
func Outcome(status int) string {
	switch {
	case status == 0:
		return "network"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
