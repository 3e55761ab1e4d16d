package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_kafka_events_published_total",
	Help: "Events written to Kafka by topic and outcome.",
}, []string{"topic", "outcome"})
