package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/auth"
	"github.com/swifthaul/chat-service/internal/conversation"
	"github.com/swifthaul/chat-service/internal/guest"
	"github.com/swifthaul/chat-service/internal/metrics"
	"github.com/swifthaul/chat-service/internal/notify"
	"github.com/swifthaul/chat-service/internal/send"
	"github.com/swifthaul/chat-service/internal/store"
	wsrv "github.com/swifthaul/chat-service/internal/ws"
)

type Server struct {
	app      *fiber.App
	convs    *conversation.Service
	pipeline *send.Pipeline
	guests   *guest.Bootstrapper
	subs     *notify.SubscriptionStore
	gw       store.Gateway
	ws       *wsrv.Server
	log      *zap.SugaredLogger
}

type Deps struct {
	Convs           *conversation.Service
	Pipeline        *send.Pipeline
	Guests          *guest.Bootstrapper
	Subs            *notify.SubscriptionStore
	Gateway         store.Gateway
	WS              *wsrv.Server
	Verifier        *auth.Verifier
	Redis           *redis.Client
	GuestRatePerMin int
	Log             *zap.SugaredLogger
}

func NewServer(d Deps) *Server {
	s := &Server{
		convs:    d.Convs,
		pipeline: d.Pipeline,
		guests:   d.Guests,
		subs:     d.Subs,
		gw:       d.Gateway,
		ws:       d.WS,
		log:      d.Log,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Use(identityMiddleware(d.Verifier, d.Guests))

	guestLimiter := &rateLimiter{
		cli:    d.Redis,
		prefix: "rl:guest",
		limit:  d.GuestRatePerMin,
		window: time.Minute,
	}

	v1 := app.Group("/api/v1")
	v1.Post("/guest/session", guestLimiter.middleware(), s.createGuestSession)
	v1.Get("/conversations", requireIdentity, s.listConversations)
	v1.Post("/messages", requireIdentity, s.sendMessage)
	v1.Post("/conversations/:counterpart_id/read", requireIdentity, s.markConversationRead)
	v1.Post("/notifications/subscribe", requireIdentity, s.subscribeNotifications)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", s.handleWS())

	s.app = app
	return s
}

func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

func (s *Server) ShutdownWithContext(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
