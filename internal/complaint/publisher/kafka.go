// Package publisher delivers mutated grievance envelopes to Kafka. The
// persister downstream materializes them into the complaint table; this
// service never writes the table directly.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Kafka publishes JSON-encoded envelopes. Records sharing a key land on the
// same partition, so per-key ordering survives partitioning.
type Kafka struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewKafka connects a producer to the given brokers.
func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &Kafka{client: client, logger: logger}, nil
}

// EnsureTopics creates the given topics if they do not exist yet. Safe to run
// on every boot.
func (k *Kafka) EnsureTopics(ctx context.Context, topics ...string) error {
	admin := kadm.NewClient(k.client)
	responses, err := admin.CreateTopics(ctx, 1, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, response := range responses.Sorted() {
		if response.Err != nil && !errors.Is(response.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", response.Topic, response.Err)
		}
	}
	return nil
}

// Publish encodes payload as JSON and produces it synchronously. A mutation
// is only acknowledged to the caller once the broker has the record.
func (k *Kafka) Publish(ctx context.Context, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event for %s: %w", topic, err)
	}

	record := &kgo.Record{Topic: topic, Value: value}
	if key != "" {
		record.Key = []byte(key)
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	k.logger.DebugContext(ctx, "event published", "topic", topic, "bytes", len(value))
	return nil
}

// Close flushes pending records and releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}
