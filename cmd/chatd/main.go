package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/swifthaul/chat-service/internal/api"
	"github.com/swifthaul/chat-service/internal/auth"
	"github.com/swifthaul/chat-service/internal/config"
	"github.com/swifthaul/chat-service/internal/conversation"
	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/feed"
	"github.com/swifthaul/chat-service/internal/guest"
	"github.com/swifthaul/chat-service/internal/identity"
	"github.com/swifthaul/chat-service/internal/logger"
	"github.com/swifthaul/chat-service/internal/notify"
	"github.com/swifthaul/chat-service/internal/send"
	"github.com/swifthaul/chat-service/internal/store"
	wsrv "github.com/swifthaul/chat-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(logger.Config{Development: cfg.AppEnv != "production"})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()

	mc, err := store.NewMongoClient(cfg.MongoURI)
	if err != nil {
		zlog.Fatalw("mongo init", "err", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	db := mc.Database(cfg.MongoDB)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	// feed: producer hangs off the gateway, consumer feeds the registry
	producer := feed.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()
	registry := feed.NewRegistry(zlog)
	consumer := feed.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, registry, zlog)
	defer consumer.Close()

	gw := store.NewMongoGateway(db.Collection("messages"), producer, zlog)

	issuer := guest.NewRedisIssuer(rdb, cfg.GuestSessionTTL)
	guests := guest.NewBootstrapper(issuer, zlog)

	resolver := identity.NewKindResolver(zlog)
	resolver.Register(domain.KindUser, identity.NewMongoSource(db.Collection("user_profiles")))
	resolver.Register(domain.KindEmployee, identity.NewMongoSource(db.Collection("employee_profiles")))
	resolver.Register(domain.KindGuest, identity.NewGuestSource(issuer))
	if cfg.ClientProfileURL != "" {
		resolver.Register(domain.KindClient, identity.NewHTTPSource(cfg.ClientProfileURL))
	} else {
		resolver.Register(domain.KindClient, identity.NewMongoSource(db.Collection("client_profiles")))
	}
	cached := identity.NewCachedResolver(resolver, rdb, cfg.IdentityCacheTTL, zlog)

	convs := conversation.NewService(gw, cached, zlog)
	notifier := notify.NewPublisher(cfg.NatsURL, zlog)
	defer notifier.Close()
	pipeline := send.NewPipeline(gw, notifier, zlog)
	subs := notify.NewSubscriptionStore(rdb)

	verifier, err := auth.NewVerifier(cfg.JWTPublicKeyPath)
	if err != nil {
		zlog.Fatalw("jwt verifier", "err", err)
	}

	wsServer := wsrv.NewServer(convs, gw, registry, zlog)

	srv := api.NewServer(api.Deps{
		Convs:           convs,
		Pipeline:        pipeline,
		Guests:          guests,
		Subs:            subs,
		Gateway:         gw,
		WS:              wsServer,
		Verifier:        verifier,
		Redis:           rdb,
		GuestRatePerMin: cfg.GuestRatePerMin,
		Log:             zlog,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go consumer.Run(ctx)

	go func() {
		if err := srv.Listen(":" + cfg.AppPort); err != nil {
			zlog.Fatalw("server listen", "err", err)
		}
	}()
	zlog.Infow("chat-service started", "port", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	_ = srv.ShutdownWithContext(shutdownCtx)
	zlog.Info("chat-service stopped")
}
