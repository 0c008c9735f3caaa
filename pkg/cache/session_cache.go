package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/themainkeys/wingman.app-sub000/internal/cart"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
)

const keyPrefix = "wingman:session:"

func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// SessionCache is a read-through Redis cache in front of another session store. Redis
// failures are logged and the call falls through to the wrapped store.
type SessionCache struct {
	next cart.Store
	rdb  *redis.Client
	ttl  time.Duration
	log  *zap.Logger
}

func NewSessionCache(next cart.Store, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *SessionCache {
	return &SessionCache{next: next, rdb: rdb, ttl: ttl, log: log}
}

func key(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}

func (c *SessionCache) Load(ctx context.Context, userID int64) (models.CartState, error) {
	raw, err := c.rdb.Get(ctx, key(userID)).Bytes()
	switch {
	case err == nil:
		var state models.CartState
		if err := json.Unmarshal(raw, &state); err == nil {
			return state, nil
		}
		c.log.Warn("discarding unreadable cached session", zap.Int64("user_id", userID))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("session cache read failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	state, err := c.next.Load(ctx, userID)
	if err != nil {
		return models.CartState{}, err
	}
	c.put(ctx, userID, state)
	return state, nil
}

func (c *SessionCache) Save(ctx context.Context, userID int64, state models.CartState) error {
	if err := c.next.Save(ctx, userID, state); err != nil {
		c.Forget(ctx, userID)
		return err
	}
	c.put(ctx, userID, state)
	return nil
}

// Forget drops the cached copy, e.g. after the session was written outside this cache.
func (c *SessionCache) Forget(ctx context.Context, userID int64) {
	if err := c.rdb.Del(ctx, key(userID)).Err(); err != nil {
		c.log.Warn("session cache delete failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (c *SessionCache) put(ctx context.Context, userID int64, state models.CartState) {
	raw, err := json.Marshal(state)
	if err != nil {
		c.log.Warn("session cache encode failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key(userID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("session cache write failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
