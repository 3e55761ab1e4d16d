package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func TestTopicName(t *testing.T) {
	assert.Equal(t, pkgkafka.Topic("cart", "mutation.settled"), TopicCartMutationSettled)
	assert.Equal(t, "storefront.cart.mutation.settled", TopicCartMutationSettled)
}

func TestPublishMutationSettled(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, logger.Discard())

	data := MutationSettledData{
		SessionID:     "sess-1",
		Key:           "gift-card-add",
		IntentKind:    "add_gift_card",
		Outcome:       OutcomeSucceeded,
		CartID:        "gid://shopify/Cart/c1",
		TotalQuantity: 2,
		Duration:      150 * time.Millisecond,
	}

	var published *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicCartMutationSettled, mock.AnythingOfType("*kafka.Event")).
		Run(func(args mock.Arguments) { published = args.Get(2).(*pkgkafka.Event) }).
		Return(nil).Once()

	require.NoError(t, p.PublishMutationSettled(context.Background(), "req-1", data))
	pub.AssertExpectations(t)

	require.NotNil(t, published)
	assert.Equal(t, TopicCartMutationSettled, published.Type)
	assert.Equal(t, "sess-1", published.Key)
	assert.Equal(t, SourceStorefront, published.Source)
	assert.Equal(t, "req-1", published.CorrelationID)
	assert.Equal(t, "gift-card-add", published.Attributes["mutation_key"])
	assert.Equal(t, OutcomeSucceeded, published.Attributes["outcome"])

	var got MutationSettledData
	require.NoError(t, json.Unmarshal(published.Payload, &got))
	assert.Equal(t, data, got)
}

func TestPublishMutationSettled_PublishError(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, logger.Discard())
	pub.On("Publish", mock.Anything, TopicCartMutationSettled, mock.Anything).
		Return(errors.New("broker down")).Once()

	err := p.PublishMutationSettled(context.Background(), "", MutationSettledData{SessionID: "s", Outcome: OutcomeFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
