package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/swifthaul/chat-service/internal/domain"
)

// CachedResolver is a redis read-through cache in front of a Resolver.
// Aggregation resolves every counterpart on every recompute; without the
// cache each badge refresh would fan out to the profile stores.
type CachedResolver struct {
	next Resolver
	cli  *redis.Client
	ttl  time.Duration
	log  *zap.SugaredLogger
}

func NewCachedResolver(next Resolver, cli *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *CachedResolver {
	return &CachedResolver{next: next, cli: cli, ttl: ttl, log: log}
}

func cacheKey(ref domain.ParticipantRef) string {
	return "identity:" + ref.Key()
}

func (c *CachedResolver) Resolve(ctx context.Context, ref domain.ParticipantRef) (*domain.Identity, error) {
	b, err := c.cli.Get(ctx, cacheKey(ref)).Bytes()
	if err == nil {
		var id domain.Identity
		if json.Unmarshal(b, &id) == nil {
			return &id, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warnw("identity cache get", "err", err)
	}

	id, err := c.next.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if j, err := json.Marshal(id); err == nil {
		if err := c.cli.Set(ctx, cacheKey(ref), j, c.ttl).Err(); err != nil {
			c.log.Warnw("identity cache set", "err", err)
		}
	}
	return id, nil
}
