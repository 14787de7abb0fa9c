package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Client - publishes and receives state change events over redis pub/sub.
type Client struct {
	logger *slog.Logger
	client *redis.Client
}

func New(logger *slog.Logger, client *redis.Client) *Client {
	return &Client{
		logger: logger,
		client: client,
	}
}

// Publish - sends the origin id of the writer to every subscriber of the channel.
func (that *Client) Publish(ctx context.Context, channel, origin string) error {
	if err := that.client.Publish(ctx, channel, origin).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	return nil
}

// Subscribe - returns origin ids published on the channel until ctx is done.
// The returned channel is closed when the subscription ends.
func (that *Client) Subscribe(ctx context.Context, channel string) (<-chan string, error) {
	log := that.logger.With("method", "Subscribe", "channel", channel)

	pubsub := that.client.Subscribe(ctx, channel)

	// wait for the confirmation, otherwise early publishes may be lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	origins := make(chan string)

	go func() {
		defer close(origins)
		defer func() {
			if err := pubsub.Close(); err != nil {
				log.Error("failed to close subscription", "error", err)
			}
		}()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				select {
				case origins <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	log.Info("subscribed")

	return origins, nil
}
