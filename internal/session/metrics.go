package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_sessions_active",
		Help: "Number of shopper sessions held in memory.",
	})

	sessionsEvictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_sessions_evicted_total",
		Help: "Total number of idle shopper sessions evicted.",
	})
)
