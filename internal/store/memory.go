package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swifthaul/chat-service/internal/domain"
)

// MemoryGateway is an in-process Gateway used by tests and local runs
// without a Mongo instance. Semantics mirror the mongo gateway.
type MemoryGateway struct {
	mu        sync.Mutex
	msgs      []domain.Message
	publisher EventPublisher

	InsertErr   error
	MarkReadErr error
	ListErr     error
}

func NewMemoryGateway(publisher EventPublisher) *MemoryGateway {
	return &MemoryGateway{publisher: publisher}
}

func (g *MemoryGateway) Insert(ctx context.Context, m *domain.Message) error {
	if g.InsertErr != nil {
		return g.InsertErr
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.ConversationID == "" {
		m.ConversationID = domain.PairConversationID(m.Sender, m.Receiver)
	}
	g.mu.Lock()
	g.msgs = append(g.msgs, *m)
	g.mu.Unlock()
	if g.publisher != nil {
		_ = g.publisher.PublishInsert(ctx, *m)
	}
	return nil
}

func (g *MemoryGateway) ListForParticipant(_ context.Context, ref domain.ParticipantRef) ([]domain.Message, error) {
	if g.ListErr != nil {
		return nil, g.ListErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.Message
	for _, m := range g.msgs {
		if m.Involves(ref) {
			out = append(out, m)
		}
	}
	domain.SortMessages(out)
	return out, nil
}

func (g *MemoryGateway) ListConversation(_ context.Context, viewer, counterpart domain.ParticipantRef) ([]domain.Message, error) {
	if g.ListErr != nil {
		return nil, g.ListErr
	}
	id := domain.PairConversationID(viewer, counterpart)
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.Message
	for _, m := range g.msgs {
		if m.ConversationID == id {
			out = append(out, m)
		}
	}
	domain.SortMessages(out)
	return out, nil
}

func (g *MemoryGateway) MarkConversationRead(_ context.Context, viewer, counterpart domain.ParticipantRef) (int64, error) {
	if g.MarkReadErr != nil {
		return 0, g.MarkReadErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var n int64
	for i := range g.msgs {
		m := &g.msgs[i]
		if m.Receiver.Equal(viewer) && m.Sender.Equal(counterpart) && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

// Messages returns a snapshot, for assertions.
func (g *MemoryGateway) Messages() []domain.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Message, len(g.msgs))
	copy(out, g.msgs)
	return out
}
