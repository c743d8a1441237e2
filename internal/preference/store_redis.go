package preference

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"recproxy/internal/platform/redis"
	"recproxy/pkg/platform/sentinel"
)

const keyPrefix = "preference:owner:"

// RedisStore keeps preferences in Redis. Preferences are convenience state, so
// a cache-grade store is acceptable: losing one degrades a user back to
// matchmaking on their next request.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Set(ctx context.Context, userID, ownerID string) error {
	if err := s.client.Set(ctx, keyPrefix+userID, ownerID, 0).Err(); err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, userID string) (string, error) {
	ownerID, err := s.client.Get(ctx, keyPrefix+userID).Result()
	if errors.Is(err, goredis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get preference: %w", err)
	}
	return ownerID, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}
