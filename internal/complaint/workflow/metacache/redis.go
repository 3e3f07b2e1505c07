package metacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"grievance/internal/complaint/ports"
	"grievance/pkg/platform/sentinel"
)

const keyPrefix = "grievance:business-service:"

// Redis caches business-service metadata in Redis with a TTL, sharing the
// warm cache across service instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed cache.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (*ports.BusinessServiceMeta, error) {
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get business service meta: %w", err)
	}
	var meta ports.BusinessServiceMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode business service meta: %w", err)
	}
	return &meta, nil
}

func (r *Redis) Set(ctx context.Context, key string, meta *ports.BusinessServiceMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode business service meta: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set business service meta: %w", err)
	}
	return nil
}
