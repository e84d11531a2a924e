package repository

import (
	"context"

	"MarketSentry/internal/domain/models"
	pkgkafka "MarketSentry/pkg/kafka"
)

// KafkaPublisher implements SamplePublisher for Kafka.
// Wire schema: {symbol, t, c, v} with t in epoch seconds.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, s *models.PriceSample) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), map[string]interface{}{
		"symbol": s.Symbol,
		"t":      s.Timestamp,
		"c":      s.Price,
		"v":      s.Volume,
	})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, samples []*models.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(samples))
	for i, s := range samples {
		msgs[i] = pkgkafka.Message{
			Key: []byte(s.Symbol),
			Value: map[string]interface{}{
				"symbol": s.Symbol,
				"t":      s.Timestamp,
				"c":      s.Price,
				"v":      s.Volume,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
