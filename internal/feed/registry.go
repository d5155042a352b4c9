package feed

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/metrics"
)

const subscriptionBuffer = 256

// Predicate filters feed events for one subscription.
type Predicate func(domain.Message) bool

// ForIdentity matches any message where ref is sender or receiver. Used
// for the identity-scoped (badge/unread) subscription.
func ForIdentity(ref domain.ParticipantRef) Predicate {
	return func(m domain.Message) bool {
		return m.Involves(ref)
	}
}

// ForConversation matches messages between a and b in either direction.
// Used while a specific conversation is open.
func ForConversation(a, b domain.ParticipantRef) Predicate {
	return func(m domain.Message) bool {
		return (m.Sender.Equal(a) && m.Receiver.Equal(b)) ||
			(m.Sender.Equal(b) && m.Receiver.Equal(a))
	}
}

// Subscription is one predicate-filtered view of the feed. Events arrive
// on C in the order the registry dispatched them; ordering holds only
// within a conversation, so consumers re-sort by CreatedAt.
type Subscription struct {
	C    <-chan domain.Message
	id   string
	ch   chan domain.Message
	pred Predicate
	reg  *Registry
	once sync.Once
}

// Cancel unregisters the subscription and closes its channel. Safe to
// call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.reg.unregister(s.id)
		close(s.ch)
	})
}

// Registry fans feed events out to registered subscriptions. It is the
// in-process face of the push feed: the kafka consumer dispatches into it
// and UI sessions subscribe to it.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
	log  *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{subs: make(map[string]*Subscription), log: log}
}

func (r *Registry) Subscribe(pred Predicate) *Subscription {
	s := &Subscription{
		id:   uuid.NewString(),
		ch:   make(chan domain.Message, subscriptionBuffer),
		pred: pred,
		reg:  r,
	}
	s.C = s.ch
	r.mu.Lock()
	r.subs[s.id] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) unregister(id string) {
	r.mu.Lock()
	delete(r.subs, id)
	r.mu.Unlock()
}

// Dispatch delivers one inserted message to every matching subscription.
// Delivery never blocks the feed consumer: a subscriber that cannot keep
// up loses events and reconciles on its next recompute.
func (r *Registry) Dispatch(m domain.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs {
		if !s.pred(m) {
			continue
		}
		select {
		case s.ch <- m:
		default:
			metrics.FeedDropped.Inc()
			r.log.Warnw("feed subscriber buffer full, dropping event",
				"message_id", m.ID, "conversation_id", m.ConversationID)
		}
	}
}
