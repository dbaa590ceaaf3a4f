package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis with a short TTL, so an abandoned slot
// expires instead of re-prompting days later.
type RedisStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redisv9.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

// NewClient dials Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redisv9.Client, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}

	return client, nil
}

// Put stores the pending draft for a policy, replacing any prior value.
func (s *RedisStore) Put(ctx context.Context, policyID string, pending Pending) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending draft failed: %w", err)
	}
	if err := s.client.Set(ctx, slotKey(policyID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set pending draft failed: %w", err)
	}
	return nil
}

// TakeIfPresent returns and removes the pending draft for a policy.
func (s *RedisStore) TakeIfPresent(ctx context.Context, policyID string) (Pending, bool, error) {
	raw, err := s.client.GetDel(ctx, slotKey(policyID)).Result()
	if err == redisv9.Nil {
		return Pending{}, false, nil
	}
	if err != nil {
		return Pending{}, false, fmt.Errorf("redis take pending draft failed: %w", err)
	}

	var pending Pending
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return Pending{}, false, fmt.Errorf("unmarshal pending draft failed: %w", err)
	}
	return pending, true, nil
}

// Drop discards any pending draft for a policy.
func (s *RedisStore) Drop(ctx context.Context, policyID string) error {
	if err := s.client.Del(ctx, slotKey(policyID)).Err(); err != nil {
		return fmt.Errorf("redis drop pending draft failed: %w", err)
	}
	return nil
}

func slotKey(policyID string) string {
	return "extract:pending:" + policyID
}

var _ Store = (*RedisStore)(nil)
