package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/conversation"
	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/feed"
	"github.com/swifthaul/chat-service/internal/store"
)

var ErrClosed = errors.New("session closed")

// Listener receives state changes for delivery to the UI surface.
// Callbacks run on session goroutines and must not block for long.
type Listener interface {
	TranscriptChanged(msgs []domain.Message)
	ConversationsChanged(list domain.ConversationList)
}

// Session owns all mutable state of one active chat surface: the open
// conversation, its transcript and the viewer's conversation list. State
// changes only through the defined entry points, under one mutex, so
// feed callbacks stay atomic with respect to in-flight reads.
type Session struct {
	viewer domain.ParticipantRef
	convs  *conversation.Service
	gw     store.Gateway
	reg    *feed.Registry
	log    *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	started     bool
	closed      bool
	counterpart *domain.ParticipantRef
	transcript  []domain.Message
	seen        map[string]struct{}
	list        domain.ConversationList
	listener    Listener

	globalSub *feed.Subscription
	convSub   *feed.Subscription
}

func New(viewer domain.ParticipantRef, convs *conversation.Service, gw store.Gateway, reg *feed.Registry, log *zap.SugaredLogger) *Session {
	return &Session{
		viewer: viewer,
		convs:  convs,
		gw:     gw,
		reg:    reg,
		log:    log,
		seen:   make(map[string]struct{}),
	}
}

func (s *Session) SetListener(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Start loads the conversation list and begins the identity-scoped feed
// subscription that keeps badges current. The parent context bounds the
// whole session; cancelling it tears everything down.
func (s *Session) Start(parent context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(parent)
	s.globalSub = s.reg.Subscribe(feed.ForIdentity(s.viewer))
	s.mu.Unlock()

	s.refreshList()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.ctx.Done():
				return
			case m, ok := <-s.globalSub.C:
				if !ok {
					return
				}
				s.handleGlobal(m)
			}
		}
	}()
}

// Open makes counterpart the current conversation: loads the transcript,
// acknowledges its unread messages (read state follows active viewing)
// and starts the conversation-scoped subscription. Any previously open
// conversation is closed first.
func (s *Session) Open(counterpart domain.ParticipantRef) error {
	s.mu.Lock()
	if s.closed || !s.started {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.convSub != nil {
		s.convSub.Cancel()
		s.convSub = nil
	}
	cp := counterpart
	s.counterpart = &cp
	s.transcript = nil
	s.seen = make(map[string]struct{})
	// subscribe before the fetch so inserts landing mid-load are not
	// missed; the id dedupe absorbs any overlap
	sub := s.reg.Subscribe(feed.ForConversation(s.viewer, counterpart))
	s.convSub = sub
	ctx := s.ctx
	s.mu.Unlock()

	msgs, err := s.gw.ListConversation(ctx, s.viewer, counterpart)
	if err != nil {
		// degrade to an empty transcript, keep the surface usable
		s.log.Errorw("load transcript", "err", err, "counterpart", counterpart.Key())
		msgs = nil
	}

	s.mu.Lock()
	if s.counterpart == nil || !s.counterpart.Equal(counterpart) {
		s.mu.Unlock()
		return nil
	}
	for i := range msgs {
		if msgs[i].Receiver.Equal(s.viewer) {
			msgs[i].Read = true
		}
		s.seen[msgs[i].ID] = struct{}{}
	}
	domain.SortMessages(msgs)
	s.transcript = msgs
	notify := s.transcriptChanged()
	s.mu.Unlock()
	notify()

	s.markRead(counterpart)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-sub.C:
				if !ok {
					return
				}
				s.applyTranscript(m)
			}
		}
	}()
	return nil
}

// CloseConversation leaves the current conversation but keeps the
// session (and its badge subscription) alive.
func (s *Session) CloseConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.convSub != nil {
		s.convSub.Cancel()
		s.convSub = nil
	}
	s.counterpart = nil
	s.transcript = nil
	s.seen = make(map[string]struct{})
}

// Close tears the session down: both subscriptions are cancelled and the
// session context aborts any in-flight operation.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.convSub != nil {
		s.convSub.Cancel()
		s.convSub = nil
	}
	if s.globalSub != nil {
		s.globalSub.Cancel()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// handleGlobal reacts to any message involving the viewer by recomputing
// the conversation list from the store. Arrival order across
// subscriptions is not trusted; the aggregator re-sorts by CreatedAt.
func (s *Session) handleGlobal(_ domain.Message) {
	s.refreshList()
}

// applyTranscript appends one feed-delivered message to the open
// transcript. The feed redelivers, so apply is idempotent on message id;
// a feed copy of a just-sent message never duplicates the applied one.
func (s *Session) applyTranscript(m domain.Message) {
	s.mu.Lock()
	cp := s.counterpart
	if cp == nil || s.closed {
		s.mu.Unlock()
		return
	}
	// a cancelled subscription's buffer can still drain after a switch;
	// only events for the currently open pair may touch the transcript
	if !m.Involves(s.viewer) || !m.Counterpart(s.viewer).Equal(*cp) {
		s.mu.Unlock()
		return
	}
	if _, dup := s.seen[m.ID]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[m.ID] = struct{}{}

	ack := m.Receiver.Equal(s.viewer) && !m.Read
	if ack {
		// the conversation is on screen, so the message is read the
		// moment it lands
		m.Read = true
	}
	s.transcript = append(s.transcript, m)
	domain.SortMessages(s.transcript)
	notify := s.transcriptChanged()
	counterpart := *cp
	s.mu.Unlock()
	notify()

	if ack {
		s.markRead(counterpart)
	}
}

// markRead acknowledges counterpart's unread messages. Failures are
// logged, not surfaced: the badge may drift until the next recompute.
func (s *Session) markRead(counterpart domain.ParticipantRef) {
	if _, err := s.gw.MarkConversationRead(s.ctx, s.viewer, counterpart); err != nil {
		s.log.Errorw("mark read", "err", err, "counterpart", counterpart.Key())
		return
	}
	s.refreshList()
}

func (s *Session) refreshList() {
	list := s.convs.List(s.ctx, s.viewer)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.list = list
	l := s.listener
	s.mu.Unlock()
	if l != nil {
		l.ConversationsChanged(list)
	}
}

// transcriptChanged snapshots the transcript for the listener. Callers
// hold the mutex and invoke the returned delivery after releasing it, on
// the same goroutine, so callbacks reach the listener in the order the
// state changed.
func (s *Session) transcriptChanged() func() {
	l := s.listener
	if l == nil {
		return func() {}
	}
	out := make([]domain.Message, len(s.transcript))
	copy(out, s.transcript)
	return func() { l.TranscriptChanged(out) }
}

// Transcript returns a copy of the open conversation's messages.
func (s *Session) Transcript() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Conversations returns the last computed listing.
func (s *Session) Conversations() domain.ConversationList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list
}

func (s *Session) Viewer() domain.ParticipantRef { return s.viewer }
