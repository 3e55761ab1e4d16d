package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// TopicCartMutationSettled receives one event per settled cart mutation.
var TopicCartMutationSettled = pkgkafka.Topic("cart", "mutation.settled")

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront-service"

// Outcomes of a settled mutation.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// MutationSettledData is the payload of a cart.mutation.settled event.
type MutationSettledData struct {
	SessionID     string        `json:"session_id"`
	Key           string        `json:"key"`
	IntentKind    string        `json:"intent_kind"`
	Outcome       string        `json:"outcome"`
	ErrorKind     string        `json:"error_kind,omitempty"`
	CartID        string        `json:"cart_id,omitempty"`
	TotalQuantity int           `json:"total_quantity"`
	Duration      time.Duration `json:"duration_ns"`
}

// Publisher sends events to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishMutationSettled publishes a cart.mutation.settled event keyed by the
// shopper session, so one session's events stay ordered.
func (p *Producer) PublishMutationSettled(ctx context.Context, correlationID string, data MutationSettledData) error {
	event, err := pkgkafka.NewEvent(SourceStorefront, TopicCartMutationSettled, data.SessionID, data,
		pkgkafka.WithCorrelationID(correlationID),
		pkgkafka.WithAttribute("mutation_key", data.Key),
		pkgkafka.WithAttribute("outcome", data.Outcome),
	)
	if err != nil {
		return fmt.Errorf("create cart.mutation.settled event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartMutationSettled, event); err != nil {
		return fmt.Errorf("publish cart.mutation.settled event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.mutation.settled event",
		slog.String("session_id", data.SessionID),
		slog.String("key", data.Key),
		slog.String("outcome", data.Outcome),
	)
	return nil
}
