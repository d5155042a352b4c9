package conversation

import (
	"context"
	"sort"

	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/identity"
)

// Aggregate folds the viewer's raw messages into per-counterpart
// summaries: last message by max CreatedAt, unread = messages addressed
// to the viewer still unread, metadata via the resolver. The list is
// sorted descending by last message time; equal times are broken by
// counterpart key ascending so output is deterministic.
//
// Counterparts with no messages never appear: groups exist only because
// a message does.
func Aggregate(ctx context.Context, viewer domain.ParticipantRef, msgs []domain.Message, resolver identity.Resolver) domain.ConversationList {
	type group struct {
		counterpart domain.ParticipantRef
		last        domain.Message
		unread      int
	}

	groups := make(map[string]*group)
	for _, m := range msgs {
		if !m.Involves(viewer) {
			continue
		}
		cp := m.Counterpart(viewer)
		g, ok := groups[cp.Key()]
		if !ok {
			g = &group{counterpart: cp, last: m}
			groups[cp.Key()] = g
		} else if m.CreatedAt.After(g.last.CreatedAt) {
			g.last = m
		}
		if m.Receiver.Equal(viewer) && !m.Read {
			g.unread++
		}
	}

	list := domain.ConversationList{}
	for _, g := range groups {
		id := resolveOrPlaceholder(ctx, resolver, g.counterpart)
		list.Conversations = append(list.Conversations, domain.ConversationSummary{
			CounterpartRef:    g.counterpart,
			CounterpartID:     g.counterpart.ID,
			CounterpartName:   id.DisplayName,
			CounterpartRole:   id.Role,
			CounterpartAvatar: id.AvatarURL,
			LastMessage:       g.last.Content,
			LastMessageTime:   g.last.CreatedAt,
			UnreadCount:       g.unread,
		})
		list.UnreadTotal += g.unread
	}

	sort.Slice(list.Conversations, func(i, j int) bool {
		a, b := list.Conversations[i], list.Conversations[j]
		if !a.LastMessageTime.Equal(b.LastMessageTime) {
			return a.LastMessageTime.After(b.LastMessageTime)
		}
		return a.CounterpartRef.Key() < b.CounterpartRef.Key()
	})
	return list
}

func resolveOrPlaceholder(ctx context.Context, resolver identity.Resolver, ref domain.ParticipantRef) *domain.Identity {
	if resolver == nil {
		return identity.Placeholder(ref)
	}
	id, err := resolver.Resolve(ctx, ref)
	if err != nil {
		return identity.Placeholder(ref)
	}
	return id
}
