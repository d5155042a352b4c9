package domain

import "time"

// GuestSession is the ephemeral identity issued to an unauthenticated
// visitor on first chat attempt. It lives for the browsing session and is
// never explicitly destroyed.
type GuestSession struct {
	Token       string    `json:"token"`
	GuestID     string    `json:"guest_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s GuestSession) Ref() ParticipantRef {
	return ParticipantRef{ID: s.GuestID, Kind: KindGuest}
}
