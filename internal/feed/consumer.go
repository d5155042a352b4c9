package feed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/metrics"
)

// Consumer reads message-insert events off the feed topic and dispatches
// them into the registry. It runs until its context is cancelled.
type Consumer struct {
	reader *kafka.Reader
	reg    *Registry
	log    *zap.SugaredLogger
}

func NewConsumer(brokers []string, topic, groupID string, reg *Registry, log *zap.SugaredLogger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &Consumer{reader: r, reg: reg, log: log}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			c.log.Errorw("feed read", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			c.log.Errorw("feed decode", "err", err, "offset", m.Offset)
			continue
		}
		if ev.Type != EventTypeMessageInserted {
			continue
		}
		metrics.FeedEvents.Inc()
		c.reg.Dispatch(ev.Message)
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }
