// Package kafka connects the outbox relay to Kafka and reads the plan event
// stream back for subscribers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"synapse/pkg/platform/events"
)

// Header names attached to every produced record.
const (
	HeaderEventType = "event_type"
	HeaderRequestID = "request_id"
)

// Producer publishes plan events to a single topic. It implements the relay
// sink: Send returns only after every record in the batch is acknowledged.
type Producer struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewProducer connects to brokers. Records are keyed by plan ID so events of
// one plan stay ordered within a partition.
func NewProducer(brokers []string, topic string, logger *slog.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka producer requires at least one broker")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client, topic: topic, logger: logger}, nil
}

func (p *Producer) Send(ctx context.Context, batch []events.Event) error {
	if len(batch) == 0 {
		return nil
	}
	records := make([]*kgo.Record, 0, len(batch))
	for _, event := range batch {
		record, err := toRecord(p.topic, event)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce %d events: %w", len(records), err)
	}
	if p.logger != nil {
		p.logger.DebugContext(ctx, "events produced",
			"topic", p.topic,
			"count", len(records),
		)
	}
	return nil
}

// EnsureTopic creates the event topic when it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	return EnsureTopic(ctx, p.client, p.topic, partitions, replicationFactor)
}

// Ping checks that at least one broker answers.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Producer) Close() {
	p.client.Close()
}

func toRecord(topic string, event events.Event) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	headers := []kgo.RecordHeader{{Key: HeaderEventType, Value: []byte(event.Type)}}
	if event.RequestID != "" {
		headers = append(headers, kgo.RecordHeader{Key: HeaderRequestID, Value: []byte(event.RequestID)})
	}
	return &kgo.Record{
		Topic:     topic,
		Key:       []byte(event.PlanID.String()),
		Value:     value,
		Headers:   headers,
		Timestamp: event.Timestamp,
	}, nil
}
