package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/logger"
)

type stubSource struct {
	identity *domain.Identity
	err      error
	calls    int
}

func (s *stubSource) Lookup(context.Context, string) (*domain.Identity, error) {
	s.calls++
	return s.identity, s.err
}

func TestKindResolverDispatchesOnKind(t *testing.T) {
	userSrc := &stubSource{identity: &domain.Identity{DisplayName: "Ann"}}
	employeeSrc := &stubSource{identity: &domain.Identity{DisplayName: "Dispatch", Role: "support"}}

	r := NewKindResolver(logger.Nop())
	r.Register(domain.KindUser, userSrc)
	r.Register(domain.KindEmployee, employeeSrc)

	ref := domain.ParticipantRef{ID: "e1", Kind: domain.KindEmployee}
	id, err := r.Resolve(context.Background(), ref)
	require.NoError(t, err)
	require.Equal(t, "Dispatch", id.DisplayName)
	require.Equal(t, ref, id.Ref)
	require.Equal(t, 1, employeeSrc.calls)
	require.Zero(t, userSrc.calls)
}

func TestKindResolverRejectsUnknownKind(t *testing.T) {
	r := NewKindResolver(logger.Nop())
	_, err := r.Resolve(context.Background(), domain.ParticipantRef{ID: "x", Kind: "robot"})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestKindResolverWrapsSourceError(t *testing.T) {
	src := &stubSource{err: errors.New("profile store down")}
	r := NewKindResolver(logger.Nop())
	r.Register(domain.KindUser, src)

	_, err := r.Resolve(context.Background(), domain.ParticipantRef{ID: "u1", Kind: domain.KindUser})
	require.Error(t, err)
}

func TestPlaceholderNamesGuests(t *testing.T) {
	g := Placeholder(domain.ParticipantRef{ID: "g1", Kind: domain.KindGuest})
	require.Equal(t, "Guest", g.DisplayName)
	u := Placeholder(domain.ParticipantRef{ID: "u1", Kind: domain.KindUser})
	require.Equal(t, "Unknown", u.DisplayName)
}
