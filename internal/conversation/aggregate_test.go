package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/logger"
	"github.com/swifthaul/chat-service/internal/store"
)

var (
	viewerA    = domain.ParticipantRef{ID: "a", Kind: domain.KindUser}
	employeeB  = domain.ParticipantRef{ID: "b", Kind: domain.KindEmployee}
	employeeC  = domain.ParticipantRef{ID: "c", Kind: domain.KindEmployee}
	employeeD  = domain.ParticipantRef{ID: "d", Kind: domain.KindEmployee}
	baseTime   = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
)

type staticResolver map[string]*domain.Identity

func (r staticResolver) Resolve(_ context.Context, ref domain.ParticipantRef) (*domain.Identity, error) {
	if id, ok := r[ref.Key()]; ok {
		return id, nil
	}
	return nil, errors.New("no profile")
}

func msg(id string, from, to domain.ParticipantRef, at time.Time, read bool) domain.Message {
	return domain.Message{
		ID:             id,
		ConversationID: domain.PairConversationID(from, to),
		Sender:         from,
		Receiver:       to,
		Content:        "msg-" + id,
		Read:           read,
		CreatedAt:      at,
	}
}

func TestAggregateUnreadAndLastMessage(t *testing.T) {
	// B wrote at T1 (unread) and T2 < T1 (read); A replied at T3 < T2.
	t1 := baseTime
	t2 := baseTime.Add(-time.Hour)
	t3 := baseTime.Add(-2 * time.Hour)
	msgs := []domain.Message{
		msg("m1", employeeB, viewerA, t1, false),
		msg("m2", employeeB, viewerA, t2, true),
		msg("m3", viewerA, employeeB, t3, false),
	}

	list := Aggregate(context.Background(), viewerA, msgs, nil)
	require.Len(t, list.Conversations, 1)

	conv := list.Conversations[0]
	require.Equal(t, 1, conv.UnreadCount)
	require.Equal(t, "msg-m1", conv.LastMessage)
	require.True(t, conv.LastMessageTime.Equal(t1))
	require.Equal(t, 1, list.UnreadTotal)
}

func TestAggregateOrdersByLastMessageDescending(t *testing.T) {
	t1 := baseTime
	t2 := baseTime.Add(-time.Hour)
	t3 := baseTime.Add(-2 * time.Hour)
	msgs := []domain.Message{
		msg("m1", employeeC, viewerA, t2, true),
		msg("m2", employeeB, viewerA, t1, true),
		msg("m3", employeeD, viewerA, t3, true),
	}

	list := Aggregate(context.Background(), viewerA, msgs, nil)
	require.Len(t, list.Conversations, 3)
	require.Equal(t, "b", list.Conversations[0].CounterpartID)
	require.Equal(t, "c", list.Conversations[1].CounterpartID)
	require.Equal(t, "d", list.Conversations[2].CounterpartID)
}

func TestAggregateTieBreaksByCounterpartKey(t *testing.T) {
	msgs := []domain.Message{
		msg("m1", employeeC, viewerA, baseTime, true),
		msg("m2", employeeB, viewerA, baseTime, true),
	}
	for i := 0; i < 5; i++ {
		list := Aggregate(context.Background(), viewerA, msgs, nil)
		require.Equal(t, "b", list.Conversations[0].CounterpartID)
		require.Equal(t, "c", list.Conversations[1].CounterpartID)
	}
}

func TestAggregateUnreadTotalSumsPerConversation(t *testing.T) {
	msgs := []domain.Message{
		msg("m1", employeeB, viewerA, baseTime, false),
		msg("m2", employeeB, viewerA, baseTime.Add(time.Minute), false),
		msg("m3", employeeC, viewerA, baseTime, false),
		// sent by the viewer: never counts as unread for the viewer
		msg("m4", viewerA, employeeC, baseTime.Add(time.Minute), false),
	}

	list := Aggregate(context.Background(), viewerA, msgs, nil)
	var sum int
	for _, c := range list.Conversations {
		sum += c.UnreadCount
	}
	require.Equal(t, 3, sum)
	require.Equal(t, sum, list.UnreadTotal)
}

func TestAggregateResolvesCounterpartMetadata(t *testing.T) {
	resolver := staticResolver{
		employeeB.Key(): {DisplayName: "Dispatch Desk", Role: "support", AvatarURL: "https://cdn/avatar.png"},
	}
	msgs := []domain.Message{msg("m1", employeeB, viewerA, baseTime, false)}

	list := Aggregate(context.Background(), viewerA, msgs, resolver)
	conv := list.Conversations[0]
	require.Equal(t, "Dispatch Desk", conv.CounterpartName)
	require.Equal(t, "support", conv.CounterpartRole)
	require.Equal(t, "https://cdn/avatar.png", conv.CounterpartAvatar)
}

func TestAggregateFallsBackToPlaceholderOnResolverFailure(t *testing.T) {
	resolver := staticResolver{} // resolves nothing
	guest := domain.ParticipantRef{ID: "g1", Kind: domain.KindGuest}
	msgs := []domain.Message{msg("m1", guest, viewerA, baseTime, false)}

	list := Aggregate(context.Background(), viewerA, msgs, resolver)
	require.Len(t, list.Conversations, 1)
	require.Equal(t, "Guest", list.Conversations[0].CounterpartName)
}

func TestAggregateEmptyInputYieldsNoConversations(t *testing.T) {
	list := Aggregate(context.Background(), viewerA, nil, nil)
	require.Empty(t, list.Conversations)
	require.Zero(t, list.UnreadTotal)
}

func TestServiceListDegradesToEmptyOnFetchFailure(t *testing.T) {
	gw := store.NewMemoryGateway(nil)
	gw.ListErr = errors.New("store down")
	svc := NewService(gw, nil, logger.Nop())

	list := svc.List(context.Background(), viewerA)
	require.Empty(t, list.Conversations)
	require.Zero(t, list.UnreadTotal)
}

func TestMarkReadTransitionsUnreadToZero(t *testing.T) {
	gw := store.NewMemoryGateway(nil)
	ctx := context.Background()
	m1 := msg("m1", employeeB, viewerA, baseTime, false)
	m2 := msg("m2", employeeB, viewerA, baseTime.Add(time.Minute), false)
	require.NoError(t, gw.Insert(ctx, &m1))
	require.NoError(t, gw.Insert(ctx, &m2))

	svc := NewService(gw, nil, logger.Nop())
	require.Equal(t, 2, svc.List(ctx, viewerA).UnreadTotal)

	n, err := gw.MarkConversationRead(ctx, viewerA, employeeB)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	list := svc.List(ctx, viewerA)
	require.Zero(t, list.UnreadTotal)

	// content and timestamps survive the read transition untouched
	for _, m := range gw.Messages() {
		require.True(t, m.Read)
		require.Contains(t, []string{"msg-m1", "msg-m2"}, m.Content)
		require.False(t, m.CreatedAt.IsZero())
	}
}
