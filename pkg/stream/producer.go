// Package stream publishes executed trades to Kafka for downstream
// consumers (market-data fan-out, analytics). Optional: the exchange runs
// fine without a broker.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/booklab-dev/matchbook/pkg/engine"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// PublishTrade writes one trade keyed by trade id, JSON-encoded.
func (p *Producer) PublishTrade(ctx context.Context, t engine.Trade) error {
	value, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade %d: %w", t.ID, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", t.ID)),
		Value: value,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
