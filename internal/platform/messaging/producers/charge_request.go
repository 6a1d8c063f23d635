package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/marketplace-escrow-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

type ChargeReqMessageProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// Creates a new API producer for charge requests and ensures topic exists
func NewChargeReqMessageProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ChargeReqMessageProducer, error) {
	if cfg.ChargeTopic == "" {
		return nil, fmt.Errorf("kafka charge topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for charge producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.ChargeTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure charge topic %s exists for charge producer: %w", cfg.ChargeTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ChargeTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Using async for high throughput
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.ChargeTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.ChargeTopic, "count", len(messages))
			}
		},
	}

	return &ChargeReqMessageProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.ChargeTopic,
	}, nil
}

func (p *ChargeReqMessageProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for charge producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via charge producer",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via charge producer: %w", p.topic, err)
	}

	p.logger.Debug("Published message via charge producer",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ChargeReqMessageProducer) Close() error {
	p.logger.Info("Closing charge request Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close charge kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
