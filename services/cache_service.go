package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"freshersparty_go/database"
)

// CacheService is a small read-through TTL cache keyed by string, with
// manual invalidation by key prefix. Backed by Redis; every operation is a
// no-op when Redis is unavailable so callers always fall through to the
// database.
type CacheService struct {
	client *redis.Client
}

func NewCacheService() *CacheService {
	return &CacheService{client: database.GetRedisClient()}
}

var ErrCacheMiss = errors.New("cache miss")

// Get unmarshals the cached value for key into dest.
func (cs *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if cs.client == nil {
		return ErrCacheMiss
	}
	raw, err := cs.client.Get(ctx, key).Bytes()
	if err != nil {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

// Set stores value under key for ttl.
func (cs *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if cs.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := cs.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Debug("Cache set failed")
	}
}

// InvalidatePrefix deletes every key under the prefix. Used after admin
// mutations so public reads never serve stale rows for long.
func (cs *CacheService) InvalidatePrefix(ctx context.Context, prefix string) {
	if cs.client == nil {
		return
	}
	iter := cs.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logrus.WithError(err).WithField("prefix", prefix).Warn("Cache scan failed")
		return
	}
	if len(keys) > 0 {
		if err := cs.client.Del(ctx, keys...).Err(); err != nil {
			logrus.WithError(err).WithField("prefix", prefix).Warn("Cache invalidation failed")
		}
	}
}
