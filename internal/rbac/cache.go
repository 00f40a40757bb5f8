package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PermissionCache stores effective permission sets in Redis, keyed by
// user+role and stamped with the role's grants_version. A stale stamp means
// grants changed since caching and the set must be recomputed.
type PermissionCache struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedGrants struct {
	Version int64    `json:"version"`
	Actions []string `json:"actions"`
}

// NewPermissionCache constructs a cache. A nil client degrades to a
// permanent miss, which only costs an extra query per authorize.
func NewPermissionCache(client *redis.Client, ttl time.Duration) *PermissionCache {
	return &PermissionCache{client: client, ttl: ttl}
}

// Get returns the cached actions and their version stamp.
func (c *PermissionCache) Get(ctx context.Context, userID, roleID int64) ([]string, int64, bool) {
	if c == nil || c.client == nil {
		return nil, 0, false
	}
	payload, err := c.client.Get(ctx, c.key(userID, roleID)).Bytes()
	if err != nil {
		return nil, 0, false
	}
	var stored cachedGrants
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, 0, false
	}
	return stored.Actions, stored.Version, true
}

// Put stores the actions under the given version stamp.
func (c *PermissionCache) Put(ctx context.Context, userID, roleID, version int64, actions []string) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(cachedGrants{Version: version, Actions: actions})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID, roleID), payload, c.ttl).Err()
}

// Invalidate drops the cached set for a user+role pair.
func (c *PermissionCache) Invalidate(ctx context.Context, userID, roleID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.key(userID, roleID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (c *PermissionCache) key(userID, roleID int64) string {
	return fmt.Sprintf("perm:%d:%d", userID, roleID)
}
