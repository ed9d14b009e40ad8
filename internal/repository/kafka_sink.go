package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"EMAScan/internal/domain/models"
	drepo "EMAScan/internal/domain/repository"
	pkgkafka "EMAScan/pkg/kafka"
)

// DefaultSnapshotTopic receives one message per pipeline run.
const DefaultSnapshotTopic = "emascan.snapshots"

// MessagePublisher is the subset of the Kafka producer used by the sink.
type MessagePublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
}

// KafkaSink publishes dashboard snapshots keyed by run id.
type KafkaSink struct {
	producer MessagePublisher
	topic    string
}

// NewKafkaSink creates the sink. An empty topic uses DefaultSnapshotTopic.
func NewKafkaSink(producer MessagePublisher, topic string) *KafkaSink {
	if topic == "" {
		topic = DefaultSnapshotTopic
	}
	return &KafkaSink{producer: producer, topic: topic}
}

var _ drepo.SnapshotSink = (*KafkaSink)(nil)

func (s *KafkaSink) Publish(ctx context.Context, d *models.Dashboard) error {
	msg := pkgkafka.Message{
		Key:   []byte(d.RunID),
		Value: NewSnapshot(d),
		Headers: []kafka.Header{
			{Key: "source", Value: []byte(d.Source)},
		},
	}
	if err := s.producer.PublishBatch(ctx, s.topic, []pkgkafka.Message{msg}); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", d.RunID, err)
	}
	return nil
}

// Close is a no-op; the producer is owned by the caller.
func (s *KafkaSink) Close() error { return nil }

// DecodeSnapshot parses a snapshot message produced by KafkaSink.
func DecodeSnapshot(msg kafka.Message) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(msg.Value, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot at offset %d: %w", msg.Offset, err)
	}
	return s, nil
}
