package identity

import (
	"context"

	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/guest"
)

// GuestSource resolves guest display names from the session store. The
// session is the only record a guest has.
type GuestSource struct {
	issuer guest.Issuer
}

func NewGuestSource(issuer guest.Issuer) *GuestSource {
	return &GuestSource{issuer: issuer}
}

func (s *GuestSource) Lookup(ctx context.Context, id string) (*domain.Identity, error) {
	sess, err := s.issuer.LookupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{
		DisplayName:  sess.DisplayName,
		SessionToken: sess.Token,
	}, nil
}
