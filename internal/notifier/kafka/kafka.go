// Package kafka publishes alerts to a Kafka topic
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fractalizend/screener/internal/notifier"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka implements the Notifier interface by producing one JSON record
// per alert, keyed by pair so a pair's alerts stay ordered on a partition.
type Kafka struct {
	brokers     []string
	topic       string
	compression string
	writer      messageWriter
}

// New creates a Kafka notifier. The writer is built once brokers and topic
// are known, here or in Init.
func New(brokers []string, topic string) *Kafka {
	k := &Kafka{brokers: brokers, topic: topic, compression: "gzip"}
	if len(brokers) > 0 && topic != "" {
		k.writer = k.newWriter()
	}
	return k
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Init(cfg notifier.Config) error {
	if brokers, ok := notifier.StringsParam(cfg.Params, "brokers"); ok {
		k.brokers = brokers
	}
	if topic, ok := notifier.StringParam(cfg.Params, "topic"); ok {
		k.topic = topic
	}
	if c, ok := notifier.StringParam(cfg.Params, "compression"); ok {
		k.compression = c
	}

	if len(k.brokers) == 0 || k.topic == "" {
		return fmt.Errorf("kafka: brokers and topic are required")
	}
	if k.writer == nil {
		k.writer = k.newWriter()
	}
	return nil
}

func (k *Kafka) newWriter() *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(k.brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  parseCompression(k.compression),
		MaxAttempts:  1,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
}

// Send produces msg to the configured topic, or to msg.Destination when set.
func (k *Kafka) Send(ctx context.Context, msg notifier.Message) error {
	topic := k.topic
	if msg.Destination != "" {
		topic = msg.Destination
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("kafka: failed to marshal message: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(msg.Pair),
		Value: value,
		Time:  msg.SentAt,
	})
	if err != nil {
		return fmt.Errorf("kafka: publish to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}
