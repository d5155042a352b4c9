package auth

import (
	"github.com/swifthaul/chat-service/internal/domain"
)

// Context is the caller identity attached to a request: either a full
// authentication context (user, client or employee claims) or a guest
// session. It may be empty, in which case sending is refused.
type Context struct {
	Authenticated *domain.ParticipantRef
	Guest         *domain.GuestSession
}

// SenderRef resolves the identity that outgoing messages are stamped
// with. The authenticated identity wins when both are present.
func (c Context) SenderRef() (domain.ParticipantRef, bool) {
	if c.Authenticated != nil {
		return *c.Authenticated, true
	}
	if c.Guest != nil && c.Guest.GuestID != "" {
		return c.Guest.Ref(), true
	}
	return domain.ParticipantRef{}, false
}

// Bearer returns the credential string used for notification
// subscriptions.
func (c Context) Bearer() string {
	if c.Guest != nil {
		return c.Guest.Token
	}
	if c.Authenticated != nil {
		return c.Authenticated.Key()
	}
	return ""
}
