package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/conversation"
	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/feed"
	"github.com/swifthaul/chat-service/internal/session"
	"github.com/swifthaul/chat-service/internal/store"
)

const (
	writeWait = 10 * time.Second
	pingEvery = 30 * time.Second
)

// Server binds one websocket connection to one chat session. The client
// drives the surface with open/close commands; the server pushes
// transcript and conversation-list updates as the feed delivers them.
type Server struct {
	convs *conversation.Service
	gw    store.Gateway
	reg   *feed.Registry
	log   *zap.SugaredLogger
}

func NewServer(convs *conversation.Service, gw store.Gateway, reg *feed.Registry, log *zap.SugaredLogger) *Server {
	return &Server{convs: convs, gw: gw, reg: reg, log: log}
}

type command struct {
	Type            string `json:"type"` // "open" | "close"
	CounterpartID   string `json:"counterpart_id,omitempty"`
	CounterpartKind string `json:"counterpart_kind,omitempty"`
}

type push struct {
	Type          string                   `json:"type"` // "transcript" | "conversations"
	Messages      []domain.Message         `json:"messages,omitempty"`
	Conversations *domain.ConversationList `json:"conversations,omitempty"`
}

// connListener serializes pushes through a buffered channel so session
// callbacks never write the socket concurrently.
type connListener struct {
	out chan push
}

func (l *connListener) TranscriptChanged(msgs []domain.Message) {
	select {
	case l.out <- push{Type: "transcript", Messages: msgs}:
	default:
	}
}

func (l *connListener) ConversationsChanged(list domain.ConversationList) {
	select {
	case l.out <- push{Type: "conversations", Conversations: &list}:
	default:
	}
}

// Handle runs one connection for an already-authenticated viewer.
func (s *Server) Handle(conn *websocket.Conn, viewer domain.ParticipantRef) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := session.New(viewer, s.convs, s.gw, s.reg, s.log)
	listener := &connListener{out: make(chan push, 64)}
	sess.SetListener(listener)
	sess.Start(ctx)
	defer sess.Close()

	s.log.Infow("ws connected", "viewer", viewer.Key())

	done := make(chan struct{})
	go s.writePump(conn, listener.out, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			// ignore invalid JSON from the client, don't disconnect
			continue
		}
		switch cmd.Type {
		case "open":
			cp := domain.ParticipantRef{ID: cmd.CounterpartID, Kind: domain.ParticipantKind(cmd.CounterpartKind)}
			if err := cp.Validate(); err != nil {
				continue
			}
			if err := sess.Open(cp); err != nil {
				s.log.Warnw("open conversation", "err", err)
			}
		case "close":
			sess.CloseConversation()
		}
	}

	close(done)
	s.log.Infow("ws disconnected", "viewer", viewer.Key())
}

func (s *Server) writePump(conn *websocket.Conn, out <-chan push, done <-chan struct{}) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case p := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(p); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
