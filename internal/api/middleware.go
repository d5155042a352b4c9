package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/swifthaul/chat-service/internal/auth"
	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/guest"
)

const authCtxKey = "authctx"

// identityMiddleware attaches the caller identity from either a JWT
// bearer or a guest token. Requests with neither still pass: the send
// pipeline refuses them itself, and the guest registration endpoint must
// stay reachable.
func identityMiddleware(verifier *auth.Verifier, guests *guest.Bootstrapper) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx := auth.Context{}

		if h := c.Get("Authorization"); h != "" {
			parts := strings.SplitN(h, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				if claims, err := verifier.VerifyToken(parts[1]); err == nil {
					sub, okID := auth.GetStringClaim(claims, "sub")
					kind, okKind := auth.GetStringClaim(claims, "kind")
					ref := domain.ParticipantRef{ID: sub, Kind: domain.ParticipantKind(kind)}
					if okID && okKind && ref.Validate() == nil {
						actx.Authenticated = &ref
					}
				}
			}
		}

		if actx.Authenticated == nil {
			if tok := c.Get("X-Guest-Token"); tok != "" {
				if sess, err := guests.Authenticate(c.Context(), tok); err == nil {
					actx.Guest = sess
				}
			}
		}

		c.Locals(authCtxKey, actx)
		return c.Next()
	}
}

func authFromCtx(c *fiber.Ctx) auth.Context {
	if v, ok := c.Locals(authCtxKey).(auth.Context); ok {
		return v
	}
	return auth.Context{}
}

// requireIdentity gates endpoints that need a resolved viewer.
func requireIdentity(c *fiber.Ctx) error {
	if _, ok := authFromCtx(c).SenderRef(); !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication or guest session required")
	}
	return c.Next()
}

// rateLimiter is the redis INCR/EXPIRE fixed-window limiter, keyed per
// caller IP.
type rateLimiter struct {
	cli    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func (r *rateLimiter) middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("%s:%s", r.prefix, c.IP())
		count, err := r.cli.Incr(c.Context(), key).Result()
		if err != nil {
			// limiter outage must not take the endpoint down
			return c.Next()
		}
		if count == 1 {
			r.cli.Expire(c.Context(), key, r.window)
		}
		if count > int64(r.limit) {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
