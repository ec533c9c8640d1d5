package parler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parler_client",
			Name:      "requests_total",
			Help:      "API requests by endpoint and response status.",
		},
		[]string{"endpoint", "status"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parler_client",
			Name:      "retries_total",
			Help:      "Requests repeated after a transient or unexpected status.",
		},
		[]string{"reason"},
	)

	abortsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parler_client",
			Name:      "aborts_total",
			Help:      "Calls aborted because the reconnect budget was exhausted.",
		},
	)
)
