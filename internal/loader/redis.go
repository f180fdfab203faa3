package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLoader reads documents stored as plain string values under
// <prefix><id>.
type RedisLoader struct {
	client redis.Cmdable
	prefix string
}

// NewRedisLoader returns a loader over client.
func NewRedisLoader(client redis.Cmdable, prefix string) *RedisLoader {
	return &RedisLoader{client: client, prefix: prefix}
}

// Key returns the Redis key holding record id's document.
func (l *RedisLoader) Key(id string) string {
	return l.prefix + id
}

// Fetch returns the value stored for id, or nil when the key does not exist.
func (l *RedisLoader) Fetch(ctx context.Context, id string) ([]byte, error) {
	content, err := l.client.Get(ctx, l.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", l.Key(id), err)
	}
	return content, nil
}
