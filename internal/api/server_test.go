package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/swifthaul/chat-service/internal/auth"
	"github.com/swifthaul/chat-service/internal/conversation"
	"github.com/swifthaul/chat-service/internal/guest"
	"github.com/swifthaul/chat-service/internal/logger"
	"github.com/swifthaul/chat-service/internal/send"
	"github.com/swifthaul/chat-service/internal/store"
)

// newTestServer wires the API against the in-memory gateway and a dead
// redis endpoint: guest issuance falls back to local tokens and the rate
// limiter fails open, so the tests cover the degraded paths the engine
// promises to survive.
func newTestServer(t *testing.T) (*Server, *store.MemoryGateway) {
	t.Helper()
	log := logger.Nop()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })

	gw := store.NewMemoryGateway(nil)
	issuer := guest.NewRedisIssuer(rdb, 0)
	guests := guest.NewBootstrapper(issuer, log)
	verifier, err := auth.NewVerifier("")
	require.NoError(t, err)

	srv := NewServer(Deps{
		Convs:           conversation.NewService(gw, nil, log),
		Pipeline:        send.NewPipeline(gw, nil, log),
		Guests:          guests,
		Gateway:         gw,
		Verifier:        verifier,
		Redis:           rdb,
		GuestRatePerMin: 100,
		Log:             log,
	})
	return srv, gw
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func registerGuest(t *testing.T, srv *Server, name string) string {
	t.Helper()
	resp := doJSON(t, srv, http.MethodPost, "/api/v1/guest/session", map[string]string{"name": name}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestGuestSessionRequiresName(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, srv, http.MethodPost, "/api/v1/guest/session", map[string]string{"email": "x@y.z"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGuestSessionDegradesToLocalToken(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerGuest(t, srv, "Sam")
	// issuance backend is down in this fixture, the token is local
	require.True(t, strings.HasPrefix(token, "lcl."))
}

func TestEndpointsRequireIdentity(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/conversations"},
		{http.MethodPost, "/api/v1/messages"},
		{http.MethodPost, "/api/v1/conversations/e1/read"},
	} {
		resp := doJSON(t, srv, tc.method, tc.path, map[string]string{}, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestSendAndListRoundTrip(t *testing.T) {
	srv, gw := newTestServer(t)
	token := registerGuest(t, srv, "Sam")
	hdr := map[string]string{"X-Guest-Token": token}

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/messages", map[string]string{
		"receiver_id":   "e1",
		"receiver_kind": "employee",
		"content":       "where is order 4412?",
	}, hdr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, gw.Messages(), 1)

	resp = doJSON(t, srv, http.MethodGet, "/api/v1/conversations", nil, hdr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Conversations []struct {
			UserID      string `json:"userId"`
			LastMessage string `json:"lastMessage"`
			UnreadCount int    `json:"unreadCount"`
		} `json:"conversations"`
		UnreadTotal int `json:"unreadTotal"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Conversations, 1)
	require.Equal(t, "e1", list.Conversations[0].UserID)
	require.Equal(t, "where is order 4412?", list.Conversations[0].LastMessage)
	// own outgoing message is never unread for the sender
	require.Zero(t, list.UnreadTotal)
}

func TestSendRejectsWhitespaceContent(t *testing.T) {
	srv, gw := newTestServer(t)
	token := registerGuest(t, srv, "Sam")

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/messages", map[string]string{
		"receiver_id": "e1",
		"content":     "   \n",
	}, map[string]string{"X-Guest-Token": token})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, gw.Messages())
}

func TestMarkConversationRead(t *testing.T) {
	srv, gw := newTestServer(t)
	token := registerGuest(t, srv, "Sam")
	hdr := map[string]string{"X-Guest-Token": token}

	// guest sends, employee answers out of band
	resp := doJSON(t, srv, http.MethodPost, "/api/v1/messages", map[string]string{
		"receiver_id": "e1", "receiver_kind": "employee", "content": "hello",
	}, hdr)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sent := gw.Messages()[0]
	reply := sent
	reply.ID = ""
	reply.Sender, reply.Receiver = sent.Receiver, sent.Sender
	reply.Content = "on it"
	require.NoError(t, gw.Insert(context.Background(), &reply))

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/conversations/e1/read?kind=employee", nil, hdr)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, m := range gw.Messages() {
		if m.Content == "on it" {
			require.True(t, m.Read)
		}
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, srv, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
