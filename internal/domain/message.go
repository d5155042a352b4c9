package domain

import (
	"sort"
	"time"
)

// Message is immutable once persisted except for its Read flag, which is
// flipped only by the mark-read operation.
type Message struct {
	ID             string         `bson:"_id" json:"id"`
	ConversationID string         `bson:"conversation_id" json:"conversation_id"`
	Sender         ParticipantRef `bson:"sender" json:"sender"`
	Receiver       ParticipantRef `bson:"receiver" json:"receiver"`
	Content        string         `bson:"content" json:"content"`
	Read           bool           `bson:"read" json:"read"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
}

// Counterpart returns the other party on the message relative to viewer.
func (m Message) Counterpart(viewer ParticipantRef) ParticipantRef {
	if m.Sender.Equal(viewer) {
		return m.Receiver
	}
	return m.Sender
}

// Involves reports whether ref is the sender or the receiver.
func (m Message) Involves(ref ParticipantRef) bool {
	return m.Sender.Equal(ref) || m.Receiver.Equal(ref)
}

// PairConversationID derives the conversation id from the unordered
// participant pair. The first message between two identities implicitly
// starts the conversation; there is no separate creation step.
func PairConversationID(a, b ParticipantRef) string {
	ka, kb := a.Key(), b.Key()
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "|" + kb
}

// SortMessages orders messages chronologically, breaking created-at ties
// by id so repeated sorts are stable across feed redeliveries.
func SortMessages(msgs []Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
}
