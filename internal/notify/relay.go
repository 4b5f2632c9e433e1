package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/sumire/storefront/internal/domain"
)

// Publisher publishes events on a named channel shared by every instance.
type Publisher interface {
	Publish(ctx context.Context, channel string, event domain.Event) error
}

// PublishSink forwards queued events to a Publisher instead of a local hub.
type PublishSink struct {
	publisher Publisher
	channel   string
}

func NewPublishSink(publisher Publisher, channel string) *PublishSink {
	return &PublishSink{publisher: publisher, channel: channel}
}

func (s *PublishSink) Deliver(ctx context.Context, event domain.Event) error {
	return s.publisher.Publish(ctx, s.channel, event)
}

// Relay delivers events received from another instance to sink until the
// channel closes or ctx is done.
func Relay(ctx context.Context, events <-chan domain.Event, sink EventSink, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := sink.Deliver(ctx, event); err != nil {
				logger.Warn("Failed to relay event",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err),
				)
			}
		}
	}
}
