package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jobtrack/jobtrack-be/shared/rabbitmq"
)

const publishTimeout = 5 * time.Second

// AMQPNotifier mirrors store-change events to a RabbitMQ exchange so
// external consumers (other devices, sync tooling) can react to mutations.
type AMQPNotifier struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewAMQPNotifier wraps an existing publisher client.
func NewAMQPNotifier(client *rabbitmq.Client, logger *slog.Logger) *AMQPNotifier {
	return &AMQPNotifier{client: client, logger: logger}
}

// Notify publishes the event as JSON. Failures are logged and swallowed:
// notifications are advisory and must never fail a store write.
func (n *AMQPNotifier) Notify(ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		n.logger.Error("Failed to encode store event",
			slog.Any("error", err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := n.client.PublishWithRetry(ctx, body, "application/json"); err != nil {
		n.logger.Warn("Failed to publish store event",
			slog.String("kind", ev.Kind),
			slog.Int64("version", ev.Version),
			slog.Any("error", err),
		)
	}
}
