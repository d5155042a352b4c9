package store

import (
	"context"

	"github.com/swifthaul/chat-service/internal/domain"
)

// Gateway is the thin access layer over the backing message store.
// Messages are append-only; the single permitted mutation is the
// read-flag transition via MarkConversationRead.
type Gateway interface {
	// Insert persists a new message. The conversation is created
	// implicitly by the first message between two identities.
	Insert(ctx context.Context, m *domain.Message) error

	// ListForParticipant returns every message where ref is sender or
	// receiver, in chronological order.
	ListForParticipant(ctx context.Context, ref domain.ParticipantRef) ([]domain.Message, error)

	// ListConversation returns the messages between viewer and
	// counterpart, in chronological order.
	ListConversation(ctx context.Context, viewer, counterpart domain.ParticipantRef) ([]domain.Message, error)

	// MarkConversationRead flags every unread message from counterpart
	// to viewer as read and returns how many were flipped.
	MarkConversationRead(ctx context.Context, viewer, counterpart domain.ParticipantRef) (int64, error)
}
