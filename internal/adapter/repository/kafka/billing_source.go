package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/V4T54L/dcache-billing-exporter/internal/domain"
)

const (
	dialTimeout = 10 * time.Second
	maxFetch    = 10 << 20 // 10MB
)

// SourceConfig selects the topic and consumer group to read billing
// records from. A nil TLS config connects in plain text.
type SourceConfig struct {
	Brokers []string
	Topic   string
	Group   string
	TLS     *tls.Config
}

// BillingSource implements domain.BillingSource with a Kafka consumer
// group reader. New groups start at the latest offset.
type BillingSource struct {
	reader *kafka.Reader
	logger *slog.Logger
}

// NewBillingSource creates a consumer group reader for cfg.
func NewBillingSource(cfg SourceConfig, logger *slog.Logger) *BillingSource {
	logger = logger.With("component", "kafka_source", "topic", cfg.Topic, "group", cfg.Group)

	dialer := &kafka.Dialer{
		Timeout:   dialTimeout,
		DualStack: true,
		TLS:       cfg.TLS,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.Group,
		Topic:       cfg.Topic,
		Dialer:      dialer,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    maxFetch,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error(fmt.Sprintf(msg, args...))
		}),
	})

	return &BillingSource{reader: reader, logger: logger}
}

// FetchRecord blocks until the next billing record is available.
func (s *BillingSource) FetchRecord(ctx context.Context) (domain.Record, error) {
	msg, err := s.reader.FetchMessage(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	return toRecord(msg), nil
}

// CommitRecord commits the offset of rec for the consumer group.
func (s *BillingSource) CommitRecord(ctx context.Context, rec domain.Record) error {
	return s.reader.CommitMessages(ctx, fromRecord(rec))
}

// Close closes the reader and leaves the consumer group.
func (s *BillingSource) Close() error {
	s.logger.Info("closing kafka reader")
	return s.reader.Close()
}

func toRecord(msg kafka.Message) domain.Record {
	return domain.Record{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Value:     msg.Value,
	}
}

func fromRecord(rec domain.Record) kafka.Message {
	return kafka.Message{
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
	}
}
