package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"healthsurveys/internal/model"

	"github.com/redis/go-redis/v9"
)

// MetadataCache handles Redis caching of remote DHIS2 element listings
// so the reconciler page does not hammer the remote API on every render
type MetadataCache interface {
	GetListing(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string) (*model.ElementListing, error)
	SetListing(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string, listing *model.ElementListing) error
	Invalidate(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string) error
}

type metadataCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMetadataCache creates a new DHIS2 metadata cache
func NewMetadataCache(client *redis.Client) MetadataCache {
	return &metadataCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

func (c *metadataCache) key(instanceKey string, domain model.SyncDomain, targetID string) string {
	return fmt.Sprintf("dhis2meta:%s:%s:%s", instanceKey, domain, targetID)
}

func (c *metadataCache) GetListing(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string) (*model.ElementListing, error) {
	data, err := c.client.Get(ctx, c.key(instanceKey, domain, targetID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var listing model.ElementListing
	if err := json.Unmarshal([]byte(data), &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (c *metadataCache) SetListing(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string, listing *model.ElementListing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(instanceKey, domain, targetID), data, c.ttl).Err()
}

func (c *metadataCache) Invalidate(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string) error {
	return c.client.Del(ctx, c.key(instanceKey, domain, targetID)).Err()
}
