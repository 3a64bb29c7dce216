// Package kafka contains the Kafka delivery-event producer
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/deps"
	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
)

const (
	// TopicDelivered receives one event per successful delivery
	TopicDelivered = "media.delivered"
	// TopicFailed receives one event per delivery that exhausted all tiers
	TopicFailed = "media.failed"
)

// Producer implements deps.OutcomeProducer on a sarama sync producer
type Producer struct {
	producer sarama.SyncProducer
	logger   zerolog.Logger
}

// NewProducer creates a new Kafka producer that implements deps.OutcomeProducer
func NewProducer(brokers []string, logger zerolog.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info().Strs("brokers", brokers).Msg("Kafka producer initialized successfully")

	return &Producer{
		producer: producer,
		logger:   logger.With().Str("component", "kafka-producer").Logger(),
	}, nil
}

var _ deps.OutcomeProducer = (*Producer)(nil)

// DeliverySucceeded sends a delivery success event to Kafka
func (p *Producer) DeliverySucceeded(ctx context.Context, chatID int64, url string, outcome *entities.DeliveryOutcome) error {
	event := map[string]interface{}{
		"chat_id":      chatID,
		"url":          url,
		"tier":         string(outcome.Tier),
		"size_bytes":   outcome.Size,
		"delivered_at": time.Now().UTC().Format(time.RFC3339),
	}
	return p.sendEvent(ctx, TopicDelivered, event)
}

// DeliveryFailed sends a delivery failure event to Kafka
func (p *Producer) DeliveryFailed(ctx context.Context, chatID int64, url string, reason string) error {
	event := map[string]interface{}{
		"chat_id":   chatID,
		"url":       url,
		"reason":    reason,
		"failed_at": time.Now().UTC().Format(time.RFC3339),
	}
	return p.sendEvent(ctx, TopicFailed, event)
}

// sendEvent sends an event to specified Kafka topic
func (p *Producer) sendEvent(_ context.Context, topic string, event interface{}) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(jsonData),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Msg("Failed to send Kafka message")
		return err
	}

	p.logger.Debug().
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Kafka message sent")

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		p.logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	p.logger.Info().Msg("Kafka producer closed successfully")
	return nil
}

// NopProducer discards delivery events. It stands in when no brokers are
// configured so the delivery path never branches on event wiring.
type NopProducer struct{}

var _ deps.OutcomeProducer = (*NopProducer)(nil)

func (NopProducer) DeliverySucceeded(context.Context, int64, string, *entities.DeliveryOutcome) error {
	return nil
}

func (NopProducer) DeliveryFailed(context.Context, int64, string, string) error { return nil }

func (NopProducer) Close() error { return nil }
