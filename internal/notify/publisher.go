package notify

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/metrics"
)

const subjectMessageCreated = "chat.message.created"

const previewLimit = 120

// Record is the payload handed to the asynchronous delivery processor.
type Record struct {
	MessageID      string                `json:"message_id"`
	ConversationID string                `json:"conversation_id"`
	Receiver       domain.ParticipantRef `json:"receiver"`
	Preview        string                `json:"preview"`
}

// Publisher fans persisted messages out to the notification processor.
// Everything here is best-effort: failures are logged and counted, never
// surfaced to the sender, and never roll back the persisted message.
// A nil connection turns the publisher into a no-op.
type Publisher struct {
	nc  *nats.Conn
	log *zap.SugaredLogger
}

func NewPublisher(url string, log *zap.SugaredLogger) *Publisher {
	if url == "" {
		return &Publisher{log: log}
	}
	nc, err := nats.Connect(url)
	if err != nil {
		log.Warnw("nats connect failed, notification fan-out disabled", "err", err)
		return &Publisher{log: log}
	}
	return &Publisher{nc: nc, log: log}
}

// previewOf trims content to the preview limit without splitting a rune.
func previewOf(content string) string {
	if len(content) <= previewLimit {
		return content
	}
	cut := previewLimit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

func (p *Publisher) MessageCreated(_ context.Context, m *domain.Message) {
	if p == nil || p.nc == nil {
		return
	}
	rec := Record{
		MessageID:      m.ID,
		ConversationID: m.ConversationID,
		Receiver:       m.Receiver,
		Preview:        previewOf(m.Content),
	}
	b, _ := json.Marshal(rec)
	if err := p.nc.Publish(subjectMessageCreated, b); err != nil {
		metrics.FanoutFailures.Inc()
		p.log.Errorw("notification fan-out", "err", err, "message_id", m.ID)
	}
}

func (p *Publisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Close()
	}
}
