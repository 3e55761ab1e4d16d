package storefront

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "storefront_api_request_duration_seconds",
		Help:    "Duration of storefront GraphQL API calls.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation", "outcome"},
)
