package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
)

// EventsChannel is the channel every instance publishes domain events on.
const EventsChannel = "storefront:events"

// Publish publishes an event to a channel.
func (c *Cache) Publish(ctx context.Context, channel string, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return c.client.Publish(ctx, channel, data).Err()
}

// Subscribe subscribes to channels. The returned channel closes when ctx is done.
func (c *Cache) Subscribe(ctx context.Context, channels ...string) <-chan domain.Event {
	pubsub := c.client.Subscribe(ctx, channels...)
	events := make(chan domain.Event, 100)

	go func() {
		defer close(events)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event domain.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					c.logger.Warn("Failed to unmarshal event", zap.Error(err))
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}
