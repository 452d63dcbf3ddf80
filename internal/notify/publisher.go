package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher delivers domain events to the external sink.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}

// envelope is the wire shape written to the event topic.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Kafka publishes events to a Kafka topic via franz-go. Production is
// asynchronous; delivery failures are logged and dropped, never surfaced to
// the operation that emitted the event.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka constructs a Kafka publisher.
func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, err
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

func (k *Kafka) Publish(ctx context.Context, event Event) {
	value, err := json.Marshal(envelope{Event: event.Name(), Data: event})
	if err != nil {
		k.logger.ErrorContext(ctx, "encode event", "event", event.Name(), "error", err)
		return
	}
	record := &kgo.Record{Key: []byte(event.Key()), Value: value}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.logger.WarnContext(ctx, "event delivery failed",
				"event", event.Name(),
				"key", event.Key(),
				"error", err,
			)
		}
	})
}

func (k *Kafka) Close() {
	k.client.Close()
}

// NoOp discards every event. Used when no broker is configured and in unit
// tests that don't assert on notifications.
type NoOp struct{}

func (NoOp) Publish(context.Context, Event) {}
func (NoOp) Close()                         {}
