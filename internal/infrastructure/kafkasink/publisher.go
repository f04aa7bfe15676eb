// Package kafkasink mirrors every persisted bar onto a Kafka topic for
// downstream consumers. The file/DB store stays authoritative; publish
// failures degrade to warnings.
package kafkasink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/config"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/logger"
)

type barMessage struct {
	Minute        time.Time `json:"minute"`
	Open          string    `json:"open"`
	High          string    `json:"high"`
	Low           string    `json:"low"`
	Close         string    `json:"close"`
	IsDummy       bool      `json:"is_dummy"`
	ContractMonth string    `json:"contract_month"`
}

// Publisher produces finalized bars as JSON messages keyed by minute.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a Publisher for the configured topic.
func NewPublisher(cfg config.KafkaConfig) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish sends one bar.
func (p *Publisher) Publish(ctx context.Context, bar *market.Bar) error {
	payload, err := json.Marshal(barMessage{
		Minute:        bar.Minute,
		Open:          bar.Open.String(),
		High:          bar.High.String(),
		Low:           bar.Low.String(),
		Close:         bar.Close.String(),
		IsDummy:       bar.Synthetic,
		ContractMonth: bar.ContractMonth,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal bar: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(bar.Minute.Format("2006/01/02 15:04")),
		Value: payload,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// PublishingBarStore decorates a BarStore so every acknowledged write is
// also produced to Kafka.
type PublishingBarStore struct {
	market.BarStore
	publisher *Publisher
	log       logger.Interface
}

// NewPublishingBarStore wraps inner with the publisher.
func NewPublishingBarStore(inner market.BarStore, publisher *Publisher, log logger.Interface) *PublishingBarStore {
	return &PublishingBarStore{BarStore: inner, publisher: publisher, log: log}
}

// WriteBar persists the bar first, then publishes it.
func (s *PublishingBarStore) WriteBar(ctx context.Context, bar *market.Bar) error {
	if err := s.BarStore.WriteBar(ctx, bar); err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, bar); err != nil {
		s.log.Warn("bar publish failed",
			logger.NewField("minute", bar.Minute.Format("2006/01/02 15:04")),
			logger.NewField("error", err.Error()))
	}
	return nil
}

// Close closes the publisher and then the inner store.
func (s *PublishingBarStore) Close() error {
	if err := s.publisher.Close(); err != nil {
		s.log.Warn("kafka writer close failed", logger.NewField("error", err.Error()))
	}
	return s.BarStore.Close()
}
