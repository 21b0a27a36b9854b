package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

const kafkaWriteTimeout = 2 * time.Second

// MessageWriter is the subset of *kafka.Writer the forwarder needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder copies dispatched events onto a Kafka topic.
type KafkaForwarder struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaForwarder returns nil when no brokers are configured.
func NewKafkaForwarder(cfg config.KafkaConfig, logger *zap.Logger) *KafkaForwarder {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	logger.Info("kafka event forwarding enabled", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return newKafkaForwarder(writer, logger)
}

func newKafkaForwarder(writer MessageWriter, logger *zap.Logger) *KafkaForwarder {
	return &KafkaForwarder{writer: writer, logger: logger}
}

// Attach subscribes the forwarder to the given event types.
func (f *KafkaForwarder) Attach(dispatcher Dispatcher, types ...EventType) {
	if f == nil {
		return
	}
	for _, t := range types {
		dispatcher.Subscribe(t, f.Handle)
	}
}

// Handle writes one event, keyed by complaint so a complaint's events stay
// ordered within a partition.
func (f *KafkaForwarder) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), kafkaWriteTimeout)
	defer cancel()
	if err := f.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.ComplaintID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}); err != nil {
		return fmt.Errorf("forward event to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (f *KafkaForwarder) Close() error {
	if f == nil {
		return nil
	}
	return f.writer.Close()
}
