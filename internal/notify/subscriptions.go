package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SubscriptionStore records interest in async delivery updates for an
// entity. The delivery processor reads these sets when it decides where
// to push.
type SubscriptionStore struct {
	cli *redis.Client
}

func NewSubscriptionStore(cli *redis.Client) *SubscriptionStore {
	return &SubscriptionStore{cli: cli}
}

func subKey(entityType, entityID string) string {
	return fmt.Sprintf("notify:sub:%s:%s", entityType, entityID)
}

func (s *SubscriptionStore) Subscribe(ctx context.Context, entityID, entityType, bearer string) error {
	if entityID == "" || entityType == "" {
		return fmt.Errorf("entity_id and entity_type required")
	}
	return s.cli.SAdd(ctx, subKey(entityType, entityID), bearer).Err()
}

func (s *SubscriptionStore) Unsubscribe(ctx context.Context, entityID, entityType, bearer string) error {
	return s.cli.SRem(ctx, subKey(entityType, entityID), bearer).Err()
}
