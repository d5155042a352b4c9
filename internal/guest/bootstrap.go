package guest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/metrics"
)

var ErrNameRequired = errors.New("guest name required")

// Tokens minted when the backing issuer is unreachable carry this prefix.
// They are unverifiable by the store and accepted only so the chat surface
// stays usable in degraded mode. The guest id is embedded in the token so
// the degraded session still has a stable identity.
const localTokenPrefix = "lcl."

const issuedTokenPrefix = "gst."

// Bootstrapper issues ephemeral identities for unauthenticated visitors.
type Bootstrapper struct {
	issuer Issuer
	log    *zap.SugaredLogger
}

func NewBootstrapper(issuer Issuer, log *zap.SugaredLogger) *Bootstrapper {
	return &Bootstrapper{issuer: issuer, log: log}
}

// Register creates a guest session. Name is required, email optional.
// If the backing issuance fails the session falls back to a locally
// generated token rather than hard-failing chat.
func (b *Bootstrapper) Register(ctx context.Context, name, email string) (*domain.GuestSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	guestID := uuid.NewString()
	sess := &domain.GuestSession{
		Token:       issuedTokenPrefix + uuid.NewString(),
		GuestID:     guestID,
		DisplayName: name,
		Email:       strings.TrimSpace(email),
		CreatedAt:   time.Now().UTC(),
	}

	if err := b.issuer.Issue(ctx, sess); err != nil {
		b.log.Warnw("guest issuance failed, falling back to local token",
			"err", err, "guest_id", guestID)
		sess.Token = localTokenPrefix + guestID
		metrics.GuestSessions.WithLabelValues("fallback").Inc()
		return sess, nil
	}
	metrics.GuestSessions.WithLabelValues("issued").Inc()
	return sess, nil
}

// Authenticate validates a presented guest token. Locally minted
// fallback tokens are recognized by prefix and accepted without a store
// round trip; everything else must exist in the backing issuer.
func (b *Bootstrapper) Authenticate(ctx context.Context, token string) (*domain.GuestSession, error) {
	if token == "" {
		return nil, errors.New("empty guest token")
	}
	if id, ok := strings.CutPrefix(token, localTokenPrefix); ok && id != "" {
		return &domain.GuestSession{Token: token, GuestID: id, DisplayName: "Guest"}, nil
	}
	return b.issuer.Lookup(ctx, token)
}
