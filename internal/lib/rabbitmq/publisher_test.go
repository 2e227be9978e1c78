package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

type ChannelMock struct{ mock.Mock }

func (m *ChannelMock) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *ChannelMock) Close() error {
	return m.Called().Error(0)
}

func TestPublisher_Publish(t *testing.T) {
	event := models.SubscriptionEvent{
		Type:           models.EventUpgraded,
		UserID:         3,
		SubscriptionID: 11,
		PlanID:         2,
		PreviousID:     10,
		ProratedAmount: 10,
		OccurredAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("routing key is event type", func(t *testing.T) {
		ch := new(ChannelMock)
		ch.On("Publish", "subscriptions", "subscription.upgraded", false, false,
			mock.MatchedBy(func(msg amqp.Publishing) bool {
				var got models.SubscriptionEvent
				if err := json.Unmarshal(msg.Body, &got); err != nil {
					return false
				}
				return msg.ContentType == "application/json" &&
					msg.DeliveryMode == amqp.Persistent &&
					got.Type == event.Type &&
					got.SubscriptionID == event.SubscriptionID &&
					got.PreviousID == event.PreviousID &&
					got.ProratedAmount == event.ProratedAmount &&
					got.OccurredAt.Equal(event.OccurredAt)
			})).Return(nil).Once()

		err := NewPublisher(ch, "subscriptions").Publish(context.Background(), event)
		require.NoError(t, err)
		ch.AssertExpectations(t)
	})

	t.Run("broker error is wrapped", func(t *testing.T) {
		ch := new(ChannelMock)
		ch.On("Publish", mock.Anything, mock.Anything, false, false, mock.Anything).
			Return(errors.New("channel closed")).Once()

		err := NewPublisher(ch, "subscriptions").Publish(context.Background(), event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
		assert.Contains(t, err.Error(), "channel closed")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ch := new(ChannelMock)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewPublisher(ch, "subscriptions").Publish(ctx, event)
		assert.ErrorIs(t, err, context.Canceled)
		ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPublishMessage_MarshalError(t *testing.T) {
	ch := new(ChannelMock)
	badMsg := struct {
		Ch chan int `json:"ch"`
	}{Ch: make(chan int)}

	err := PublishMessage(ch, "", "queue", badMsg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublisher_Close(t *testing.T) {
	ch := new(ChannelMock)
	ch.On("Close").Return(nil).Once()

	require.NoError(t, NewPublisher(ch, "x").Close())
	ch.AssertExpectations(t)
}
