package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m3rciful/cemtembot/core/logger"
)

// KafkaOptions configures the Kafka publisher.
type KafkaOptions struct {
	Brokers []string
	Topic   string
	// Async makes Publish return before the broker acknowledges; delivery
	// errors are then only logged.
	Async bool
}

// Kafka writes events as JSON messages to a single topic.
type Kafka struct {
	w   *kafka.Writer
	now func() time.Time
}

// NewKafka builds a publisher. The connection is established lazily on first write.
func NewKafka(opts KafkaOptions) *Kafka {
	w := &kafka.Writer{
		Addr:         kafka.TCP(opts.Brokers...),
		Topic:        opts.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        opts.Async,
		BatchTimeout: 50 * time.Millisecond,
	}
	if opts.Async {
		w.Completion = func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Error(context.Background(), logger.CompEvents, "events.publish",
					slog.String("status", "fail"),
					slog.Int("count", len(msgs)),
					slog.String("err", err.Error()),
				)
			}
		}
	}
	return &Kafka{w: w, now: time.Now}
}

func (k *Kafka) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = k.now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(e.Key()),
		Value: data,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	logger.Debug(ctx, logger.CompEvents, "events.publish",
		slog.String("status", "ok"),
		slog.String("type", e.Type),
		slog.String("inquiry_id", e.InquiryID),
	)
	return nil
}

func (k *Kafka) Close() error {
	return k.w.Close()
}
