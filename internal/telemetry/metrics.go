// Package telemetry holds the service's prometheus collectors.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "group_ordering_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "group_ordering_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	RevisionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "group_ordering_revision_conflicts_total",
		Help: "Mutations rejected by the optimistic-concurrency check.",
	})

	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "group_ordering_conversions_total",
		Help: "Conversion pipeline outcomes.",
	}, []string{"outcome"})

	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "group_ordering_outbox_published_total",
		Help: "Outbox messages successfully relayed to the broker.",
	})
)
