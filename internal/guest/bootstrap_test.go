package guest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swifthaul/chat-service/internal/apperr"
	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/logger"
)

type memIssuer struct {
	byToken map[string]*domain.GuestSession
	byID    map[string]*domain.GuestSession
	fail    bool
}

func newMemIssuer() *memIssuer {
	return &memIssuer{byToken: map[string]*domain.GuestSession{}, byID: map[string]*domain.GuestSession{}}
}

func (m *memIssuer) Issue(_ context.Context, s *domain.GuestSession) error {
	if m.fail {
		return errors.New("redis down")
	}
	cp := *s
	m.byToken[s.Token] = &cp
	m.byID[s.GuestID] = &cp
	return nil
}

func (m *memIssuer) Lookup(_ context.Context, token string) (*domain.GuestSession, error) {
	if s, ok := m.byToken[token]; ok {
		return s, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *memIssuer) LookupByID(_ context.Context, id string) (*domain.GuestSession, error) {
	if s, ok := m.byID[id]; ok {
		return s, nil
	}
	return nil, apperr.ErrNotFound
}

func TestRegisterRequiresName(t *testing.T) {
	b := NewBootstrapper(newMemIssuer(), logger.Nop())
	for _, name := range []string{"", "   "} {
		_, err := b.Register(context.Background(), name, "")
		require.ErrorIs(t, err, ErrNameRequired)
	}
}

func TestRegisterIssuesSession(t *testing.T) {
	issuer := newMemIssuer()
	b := NewBootstrapper(issuer, logger.Nop())

	sess, err := b.Register(context.Background(), "  Sam  ", "sam@example.com")
	require.NoError(t, err)
	require.Equal(t, "Sam", sess.DisplayName)
	require.NotEmpty(t, sess.GuestID)
	require.True(t, strings.HasPrefix(sess.Token, issuedTokenPrefix))

	got, err := b.Authenticate(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.GuestID, got.GuestID)
}

func TestRegisterFallsBackToLocalTokenOnIssuanceFailure(t *testing.T) {
	issuer := newMemIssuer()
	issuer.fail = true
	b := NewBootstrapper(issuer, logger.Nop())

	sess, err := b.Register(context.Background(), "Sam", "")
	require.NoError(t, err, "issuance failure must not hard-fail chat")
	require.True(t, strings.HasPrefix(sess.Token, localTokenPrefix))
	require.NotEmpty(t, sess.GuestID)

	// a fallback token still authenticates, in degraded mode
	got, err := b.Authenticate(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.GuestID, got.GuestID)
}

func TestAuthenticateRejectsUnknownToken(t *testing.T) {
	b := NewBootstrapper(newMemIssuer(), logger.Nop())

	_, err := b.Authenticate(context.Background(), "gst.does-not-exist")
	require.Error(t, err)

	_, err = b.Authenticate(context.Background(), "")
	require.Error(t, err)
}
