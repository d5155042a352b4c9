package guest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/swifthaul/chat-service/internal/apperr"
	"github.com/swifthaul/chat-service/internal/domain"
)

// Issuer persists guest sessions for the duration of the browsing
// session and validates presented tokens.
type Issuer interface {
	Issue(ctx context.Context, s *domain.GuestSession) error
	Lookup(ctx context.Context, token string) (*domain.GuestSession, error)
	LookupByID(ctx context.Context, guestID string) (*domain.GuestSession, error)
}

// RedisIssuer keys sessions two ways: by token for auth checks and by
// guest id for identity resolution.
type RedisIssuer struct {
	cli *redis.Client
	ttl time.Duration
}

func NewRedisIssuer(cli *redis.Client, ttl time.Duration) *RedisIssuer {
	return &RedisIssuer{cli: cli, ttl: ttl}
}

func tokenKey(token string) string { return "guest:sess:" + token }
func idKey(id string) string       { return "guest:id:" + id }

func (r *RedisIssuer) Issue(ctx context.Context, s *domain.GuestSession) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.cli.Set(ctx, tokenKey(s.Token), b, r.ttl).Err(); err != nil {
		return err
	}
	return r.cli.Set(ctx, idKey(s.GuestID), b, r.ttl).Err()
}

func (r *RedisIssuer) Lookup(ctx context.Context, token string) (*domain.GuestSession, error) {
	return r.get(ctx, tokenKey(token))
}

func (r *RedisIssuer) LookupByID(ctx context.Context, guestID string) (*domain.GuestSession, error) {
	return r.get(ctx, idKey(guestID))
}

func (r *RedisIssuer) get(ctx context.Context, key string) (*domain.GuestSession, error) {
	b, err := r.cli.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s domain.GuestSession
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
