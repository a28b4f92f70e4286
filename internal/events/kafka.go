package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures a KafkaProducer.
type KafkaConfig struct {
	Brokers      []string
	Acks         string // all, one, none
	Compression  string // none, gzip, snappy, lz4, zstd
	Idempotent   bool
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// KafkaProducer writes messages with a segmentio/kafka-go Writer. The topic
// is taken from each message, and messages are partitioned by key hash so
// equal keys keep their order.
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a producer for cfg.Brokers.
func NewKafkaProducer(cfg KafkaConfig, logger *slog.Logger) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	acks, err := parseAcks(cfg.Acks)
	if err != nil {
		return nil, err
	}
	comp, err := parseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Idempotent {
		logger.Warn("kafka idempotent producer requested but not supported by the client; relying on acks and key ordering",
			"acks", cfg.Acks)
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           acks,
		Compression:            comp,
		MaxAttempts:            1,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: false,
	}
	return &KafkaProducer{writer: w}, nil
}

func (p *KafkaProducer) WriteMessage(ctx context.Context, msg Message) error {
	headers := make([]kafka.Header, len(msg.Headers))
	for i, h := range msg.Headers {
		headers[i] = kafka.Header{Key: h.Key, Value: h.Value}
	}
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   msg.Topic,
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Headers: headers,
		Time:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("kafka write to %s: %w", msg.Topic, err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

func parseAcks(s string) (kafka.RequiredAcks, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "-1":
		return kafka.RequireAll, nil
	case "one", "1":
		return kafka.RequireOne, nil
	case "none", "0":
		return kafka.RequireNone, nil
	}
	return 0, fmt.Errorf("kafka: invalid acks %q (want all, one or none)", s)
}

func parseCompression(s string) (kafka.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	}
	return 0, fmt.Errorf("kafka: invalid compression %q", s)
}
