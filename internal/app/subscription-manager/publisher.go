package subscriptionmanager

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// nopPublisher используется, когда RabbitMQ не настроен: события только пишутся в лог.
type nopPublisher struct {
	log *slog.Logger
}

func (p nopPublisher) Publish(_ context.Context, event models.SubscriptionEvent) error {
	p.log.Debug("subscription event",
		slog.String("type", string(event.Type)),
		slog.Int64("subscription_id", event.SubscriptionID),
	)
	return nil
}

func (p nopPublisher) Close() error {
	return nil
}
