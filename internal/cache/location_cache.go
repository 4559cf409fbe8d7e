package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"healthsurveys/internal/model"

	"github.com/redis/go-redis/v9"
)

// LocationCache handles Redis operations for per-instance location
// candidate lists
type LocationCache interface {
	Get(ctx context.Context, instanceKey string, hierarchyLevel int) ([]model.Location, error)
	Set(ctx context.Context, instanceKey string, hierarchyLevel int, locations []model.Location) error
	Invalidate(ctx context.Context, instanceKey string, hierarchyLevel int) error
}

type locationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocationCache creates a new location candidate cache
func NewLocationCache(client *redis.Client) LocationCache {
	return &locationCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (c *locationCache) key(instanceKey string, level int) string {
	return fmt.Sprintf("locations:%s:%d", instanceKey, level)
}

func (c *locationCache) Get(ctx context.Context, instanceKey string, hierarchyLevel int) ([]model.Location, error) {
	data, err := c.client.Get(ctx, c.key(instanceKey, hierarchyLevel)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var locations []model.Location
	if err := json.Unmarshal([]byte(data), &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

func (c *locationCache) Set(ctx context.Context, instanceKey string, hierarchyLevel int, locations []model.Location) error {
	data, err := json.Marshal(locations)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(instanceKey, hierarchyLevel), data, c.ttl).Err()
}

func (c *locationCache) Invalidate(ctx context.Context, instanceKey string, hierarchyLevel int) error {
	return c.client.Del(ctx, c.key(instanceKey, hierarchyLevel)).Err()
}
