package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParticipantKindIsValid(t *testing.T) {
	tests := []struct {
		name     string
		kind     ParticipantKind
		expected bool
	}{
		{"user", KindUser, true},
		{"client", KindClient, true},
		{"guest", KindGuest, true},
		{"employee", KindEmployee, true},
		{"empty", ParticipantKind(""), false},
		{"unknown", ParticipantKind("admin"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.expected {
				t.Errorf("IsValid() for %q got %v, want %v", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestPairConversationIDIsOrderIndependent(t *testing.T) {
	a := ParticipantRef{ID: "u1", Kind: KindUser}
	b := ParticipantRef{ID: "e1", Kind: KindEmployee}
	require.Equal(t, PairConversationID(a, b), PairConversationID(b, a))
	require.NotEqual(t, PairConversationID(a, b), PairConversationID(a, ParticipantRef{ID: "e2", Kind: KindEmployee}))
}

func TestCounterpart(t *testing.T) {
	viewer := ParticipantRef{ID: "u1", Kind: KindUser}
	other := ParticipantRef{ID: "e1", Kind: KindEmployee}

	sent := Message{Sender: viewer, Receiver: other}
	received := Message{Sender: other, Receiver: viewer}

	require.Equal(t, other, sent.Counterpart(viewer))
	require.Equal(t, other, received.Counterpart(viewer))
}

func TestSortMessagesBreaksTiesByID(t *testing.T) {
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "b", CreatedAt: at},
		{ID: "a", CreatedAt: at},
		{ID: "c", CreatedAt: at.Add(-time.Minute)},
	}
	SortMessages(msgs)
	require.Equal(t, []string{"c", "a", "b"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}
