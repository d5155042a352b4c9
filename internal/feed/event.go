package feed

import "github.com/swifthaul/chat-service/internal/domain"

// EventTypeMessageInserted is the only event type the store emits today.
// The feed is append-only: messages are never deleted, and read-flag
// changes do not produce events.
const EventTypeMessageInserted = "message.inserted"

// Event is one change-feed record. Delivery is at-least-once; consumers
// must dedupe on Message.ID.
type Event struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}
