package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard marks completion via SETNX so duplicate status callbacks stay
// idempotent across process restarts. The key expires after ttl; Twilio
// stops retrying long before that.
type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

const completionKeyPrefix = "reception:completed:"

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func (g *RedisGuard) MarkCompleted(ctx context.Context, callID string) (bool, error) {
	return g.rdb.SetNX(ctx, completionKeyPrefix+callID, 1, g.ttl).Result()
}
