package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/briefdhq/briefd/internal/cache"
	"github.com/briefdhq/briefd/models"
)

// Cache stores generated briefs as JSON values with redis-side TTL expiry.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

var _ cache.BriefCache = (*Cache)(nil)

// Conn dials redis and verifies the connection.
func Conn(ctx context.Context, addr, password string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: timeout,
		Password:    password,
		DB:          db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (c *Cache) Get(ctx context.Context, key string) (*models.GeneratedBrief, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var brief models.GeneratedBrief
	if err := json.Unmarshal([]byte(val), &brief); err != nil {
		return nil, false, err
	}
	return &brief, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, brief *models.GeneratedBrief, ttl time.Duration) error {
	data, err := json.Marshal(brief)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}
