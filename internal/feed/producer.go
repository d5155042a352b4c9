package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/swifthaul/chat-service/internal/domain"
)

// Producer publishes message-insert events to the feed topic. Events are
// keyed by conversation id so per-conversation ordering survives
// partitioning.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
	return &Producer{writer: w}
}

func (p *Producer) PublishInsert(ctx context.Context, m domain.Message) error {
	b, err := json.Marshal(Event{Type: EventTypeMessageInserted, Message: m})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.ConversationID),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error { return p.writer.Close() }
