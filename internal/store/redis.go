package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/metrics"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

const reportTTL = 24 * time.Hour

// RedisStore handles Redis operations: the latest-report cache and nonce
// replay tracking. The client is also shared with the rate limiter.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying client.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// reportKey returns the key caching the latest report of a type.
func reportKey(t models.MeetingType) string {
	return fmt.Sprintf("report:latest:%s", t)
}

// CachedReport returns the cached latest report for t, or nil on a miss.
func (s *RedisStore) CachedReport(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	start := time.Now()
	data, err := s.client.Get(ctx, reportKey(t)).Bytes()
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var r models.MeetingReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CacheReport stores r as the latest report of its type.
func (s *RedisStore) CacheReport(ctx context.Context, r *models.MeetingReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	start := time.Now()
	err = s.client.Set(ctx, reportKey(r.Type), data, reportTTL).Err()
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
	return err
}

// EvictReport drops the cached report for t.
func (s *RedisStore) EvictReport(ctx context.Context, t models.MeetingType) error {
	return s.client.Del(ctx, reportKey(t)).Err()
}

// nonceKey returns the key for nonce tracking.
func nonceKey(scope, nonce string) string {
	return fmt.Sprintf("nonce:%s:%s", scope, nonce)
}

// UseNonce marks nonce as used within scope. It returns false if the nonce
// was already used. SETNX makes check-and-mark a single step.
func (s *RedisStore) UseNonce(ctx context.Context, scope, nonce string, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := s.client.SetNX(ctx, nonceKey(scope, nonce), "1", ttl).Result()
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
	return ok, err
}
