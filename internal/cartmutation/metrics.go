package cartmutation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Settled cart mutations by intent kind and outcome.",
	}, []string{"intent", "outcome"})

	busyRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutation_busy_rejections_total",
		Help: "Submissions rejected because the mutation key was in flight.",
	}, []string{"key"})

	mutationsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_cart_mutations_in_flight",
		Help: "Cart mutations currently awaiting the backend.",
	})
)
