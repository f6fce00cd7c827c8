// Package metrics provides Prometheus metrics for observability.
// Metrics are organized by domain: derived cache traffic, invalidation
// fan-out, publication transitions, and HTTP requests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "fablehall"
)

var (
	// Cache metrics - track derived cache effectiveness per data kind.
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of derived cache hits by data kind",
		},
		[]string{"kind"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of derived cache misses by data kind",
		},
		[]string{"kind"},
	)

	// Invalidation metrics - track fan-out volume per triggering entity.
	InvalidationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invalidation",
			Name:      "events_total",
			Help:      "Total number of invalidation events by entity kind and mutation",
		},
		[]string{"entity", "mutation"},
	)

	InvalidationDeletesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invalidation",
			Name:      "deletes_total",
			Help:      "Total number of cache entries deleted by invalidation fan-out",
		},
	)

	// Publication metrics - track state machine transitions by outcome.
	PublishAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publication",
			Name:      "attempts_total",
			Help:      "Total number of publish attempts by entity and outcome",
		},
		[]string{"entity", "outcome"},
	)

	AutoDraftsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publication",
			Name:      "auto_drafts_total",
			Help:      "Total number of stories auto-drafted after losing their last published chapter",
		},
	)

	// HTTP metrics - track request volume by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)
)
