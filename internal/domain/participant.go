package domain

import "fmt"

// ParticipantKind discriminates the four identity spaces that can sit on
// either side of a message. Resolution of display metadata dispatches on
// this tag; code must never guess the shape of a profile record.
type ParticipantKind string

const (
	KindUser     ParticipantKind = "user"
	KindClient   ParticipantKind = "client"
	KindGuest    ParticipantKind = "guest"
	KindEmployee ParticipantKind = "employee"
)

func (k ParticipantKind) IsValid() bool {
	switch k {
	case KindUser, KindClient, KindGuest, KindEmployee:
		return true
	}
	return false
}

// ParticipantRef names one participant: an id scoped to its kind.
type ParticipantRef struct {
	ID   string          `bson:"id" json:"id"`
	Kind ParticipantKind `bson:"kind" json:"kind"`
}

func (r ParticipantRef) Key() string {
	return string(r.Kind) + ":" + r.ID
}

func (r ParticipantRef) Equal(o ParticipantRef) bool {
	return r.ID == o.ID && r.Kind == o.Kind
}

func (r ParticipantRef) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("participant id required")
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("invalid participant kind %q", r.Kind)
	}
	return nil
}

// Identity is the resolved display metadata for a participant. Role is
// empty for kinds that carry none. SessionToken is set only for guests.
type Identity struct {
	Ref          ParticipantRef `json:"ref"`
	DisplayName  string         `json:"display_name"`
	AvatarURL    string         `json:"avatar_url,omitempty"`
	Role         string         `json:"role,omitempty"`
	SessionToken string         `json:"session_token,omitempty"`
}
