// Package kafka publishes document events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/studyrag/pkg/eventstream"
)

type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single publish. Defaults to 10s.
	WriteTimeout time.Duration
}

// Publisher writes events keyed by document ID so all events for a document
// land on the same partition in order.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

func NewPublisher(c Config, logger *slog.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	timeout := c.WriteTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           timeout,
	}

	logger.Info("kafka event publisher initialized", "brokers", c.Brokers, "topic", c.Topic)

	return &Publisher{writer: writer, logger: logger}, nil
}

func (p *Publisher) Publish(ctx context.Context, event *eventstream.DocumentEvent) error {
	msg, err := messageFor(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing %s event: %w", event.EventType, err)
	}

	p.logger.Debug("published event",
		"event_type", event.EventType,
		"event_id", event.EventID,
		"document_id", event.DocumentID,
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func messageFor(event *eventstream.DocumentEvent) (kafkago.Message, error) {
	if event == nil {
		return kafkago.Message{}, eventstream.ErrNilEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encoding event: %w", err)
	}

	return kafkago.Message{
		Key:   []byte(event.DocumentID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(fmt.Sprint(event.SchemaVersion))},
		},
		Time: event.EmittedAt,
	}, nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
