// Package publish forwards actionable signals to a Kafka topic.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/surgelove/vibe-trader/internal/engine"
	"github.com/surgelove/vibe-trader/internal/journal"
)

// Publisher sends journal entries to Kafka, keyed by symbol.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      zerolog.Logger
}

// NewPublisher connects a synchronous producer to brokers.
func NewPublisher(brokers []string, topic string, log zerolog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka: connect producer: %w", err)
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka publisher ready")
	return NewPublisherWithProducer(producer, topic, log), nil
}

// NewPublisherWithProducer wraps an existing producer.
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string, log zerolog.Logger) *Publisher {
	return &Publisher{producer: producer, topic: topic, log: log}
}

// Publish sends entry and waits for the broker acknowledgement.
func (p *Publisher) Publish(entry journal.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("kafka: encode entry: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(payload),
	}
	if entry.Symbol != "" {
		msg.Key = sarama.StringEncoder(entry.Symbol)
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("kafka: send to %s: %w", p.topic, err)
	}
	p.log.Debug().
		Str("topic", p.topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Str("signal", string(entry.Signal)).
		Msg("published signal")
	return nil
}

// Record lets the publisher act as a journal recorder.
func (p *Publisher) Record(entry journal.Entry) error { return p.Publish(entry) }

// Hook returns an execution hook publishing every actionable signal.
func (p *Publisher) Hook(runID func() string) engine.ExecutionHook {
	return journal.Hook(runID, p)
}

// Close shuts the producer down.
func (p *Publisher) Close() error {
	return p.producer.Close()
}

var _ journal.Recorder = (*Publisher)(nil)
