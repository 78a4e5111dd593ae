package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"timed-quiz-service/internal/app"
)

// EventTypeAttemptCompleted is set in the event_type metadata of completion messages.
const EventTypeAttemptCompleted = "attempt.completed"

// Publisher sends attempt completion events through a watermill publisher.
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewPublisher(pub message.Publisher, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{publisher: pub, topic: topic, logger: logger}
}

// NewKafkaPublisher publishes to Kafka brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return NewPublisher(pub, topic, logger), nil
}

// NewInProcess returns a publisher backed by an in-memory channel pub/sub,
// together with the pub/sub so local consumers can subscribe.
func NewInProcess(topic string, logger *slog.Logger) (*Publisher, *gochannel.GoChannel) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))
	return NewPublisher(pubsub, topic, logger), pubsub
}

// PublishCompleted implements app.EventPublisher.
func (p *Publisher) PublishCompleted(_ context.Context, event app.CompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("event_type", EventTypeAttemptCompleted)
	msg.Metadata.Set("attempt_id", event.Result.AttemptID)
	msg.Metadata.Set("quiz_id", event.Result.QuizID)
	msg.Metadata.Set("timestamp", event.Result.CompletedAt.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish completion event: %w", err)
	}
	p.logger.Debug("published completion event", "attempt_id", event.Result.AttemptID, "topic", p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}

// Consume decodes completion events from topic until ctx is done or the
// subscription closes. Messages that fail to decode are acked and skipped;
// handler errors nack the message.
func Consume(ctx context.Context, sub message.Subscriber, topic string, logger *slog.Logger, handle func(context.Context, app.CompletedEvent) error) error {
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event app.CompletedEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				logger.Warn("skip malformed completion event", "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			if err := handle(msg.Context(), event); err != nil {
				logger.Error("handle completion event", "message_id", msg.UUID, "error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}
