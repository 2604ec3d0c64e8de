package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slotscribe/slotscribe/pkg/trace"
)

const (
	redisKeyPrefix = "slotscribe:trace:"
	redisIndexKey  = "slotscribe:traces"
)

// RedisStore keeps traces as JSON values with a sorted-set index scored by
// store time, so List stays most-recent-first without scanning keys.
type RedisStore struct {
	client *redis.Client
	clock  func() time.Time
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, clock: time.Now}
}

// NewRedisStoreAddr dials addr with the given password and db.
func NewRedisStoreAddr(addr, password string, db int) *RedisStore {
	return NewRedisStore(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// Get loads a trace by digest.
func (s *RedisStore) Get(ctx context.Context, hash string) (*trace.Trace, error) {
	body, err := s.client.Get(ctx, redisKeyPrefix+strings.ToLower(hash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: redis get %s: %w", hash, err)
	}
	var t trace.Trace
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return nil, fmt.Errorf("store: decode trace %s: %w", hash, err)
	}
	return &t, nil
}

// Put writes a trace and refreshes its index score.
func (s *RedisStore) Put(ctx context.Context, hash string, t *trace.Trace) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("store: encode trace %s: %w", hash, err)
	}
	key := strings.ToLower(hash)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+key, body, 0)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{
		Score:  float64(s.clock().UnixNano()),
		Member: key,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store: redis put %s: %w", hash, err)
	}
	return nil
}

// List returns up to limit traces, most recently stored first.
func (s *RedisStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	hashes, err := s.client.ZRevRange(ctx, redisIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: redis list: %w", err)
	}

	entries := make([]Entry, 0, len(hashes))
	for _, h := range hashes {
		t, err := s.Get(ctx, h)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, Entry{Hash: h, Trace: t})
	}
	return entries, nil
}
