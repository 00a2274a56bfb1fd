package notifications

import (
	"context"
	"fmt"
	"time"

	"expopass/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Dispatcher publishes buyer-facing notifications. Callers treat it as
// fire-and-forget: a returned error is logged, never propagated into the
// purchase or refund flow.
type Dispatcher interface {
	Notify(ctx context.Context, memberID *uuid.UUID, email, templateKey string, params map[string]string) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// ProducerConfig contains configuration for the Kafka dispatcher.
type ProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	Timeout          time.Duration
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "expopass-notifications",
		RetryMax:         3,
		Timeout:          10 * time.Second,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

type kafkaDispatcher struct {
	producer sarama.SyncProducer
	config   *ProducerConfig
}

// NewKafkaDispatcher creates a sync producer with idempotent writes and a
// hash partitioner keyed on the recipient.
func NewKafkaDispatcher(config *ProducerConfig) (Dispatcher, error) {
	if config == nil {
		config = DefaultProducerConfig()
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = config.Timeout
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.GetDefault().WithComponent("notifications").Info("Kafka notification dispatcher created",
		"brokers", config.Brokers, "topic", config.Topic)

	return &kafkaDispatcher{producer: producer, config: config}, nil
}

func (d *kafkaDispatcher) Notify(ctx context.Context, memberID *uuid.UUID, email, templateKey string, params map[string]string) error {
	msg := &Message{
		ID:                uuid.New(),
		TemplateKey:       templateKey,
		RecipientMemberID: memberID,
		RecipientEmail:    email,
		Params:            params,
		CreatedAt:         time.Now(),
	}

	payload, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: d.config.Topic,
		Key:   sarama.StringEncoder(msg.PartitionKey()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("template_key"), Value: []byte(templateKey)},
			{Key: []byte("message_id"), Value: []byte(msg.ID.String())},
		},
		Timestamp: msg.CreatedAt,
	}

	partition, offset, err := d.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send notification to Kafka: %w", err)
	}

	logger.GetDefault().WithComponent("notifications").Debug("Notification published",
		"template_key", templateKey, "partition", partition, "offset", offset)

	return nil
}

func (d *kafkaDispatcher) Close() error {
	return d.producer.Close()
}

func (d *kafkaDispatcher) HealthCheck(ctx context.Context) error {
	// SyncProducer keeps broker connections alive; a closed producer errors
	// on the next send, which is the only real signal sarama exposes.
	if d.producer == nil {
		return fmt.Errorf("kafka producer not initialized")
	}
	return nil
}

// NopDispatcher swallows every notification. Used when Kafka is not
// configured (local development, tests).
type NopDispatcher struct{}

func (NopDispatcher) Notify(ctx context.Context, memberID *uuid.UUID, email, templateKey string, params map[string]string) error {
	return nil
}

func (NopDispatcher) Close() error { return nil }

func (NopDispatcher) HealthCheck(ctx context.Context) error { return nil }
