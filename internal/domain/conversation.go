package domain

import "time"

// ConversationSummary is the per-counterpart row of the listing view.
// Field names follow the wire contract consumed by the dashboard UI.
type ConversationSummary struct {
	CounterpartRef    ParticipantRef `json:"-"`
	CounterpartID     string         `json:"userId"`
	CounterpartName   string         `json:"userName"`
	CounterpartRole   string         `json:"userRole,omitempty"`
	CounterpartAvatar string         `json:"userAvatar,omitempty"`
	LastMessage       string         `json:"lastMessage"`
	LastMessageTime   time.Time      `json:"lastMessageTime"`
	UnreadCount       int            `json:"unreadCount"`
}

// ConversationList is the full listing for one viewer, sorted descending
// by last message time.
type ConversationList struct {
	Conversations []ConversationSummary `json:"conversations"`
	UnreadTotal   int                   `json:"unreadTotal"`
}
