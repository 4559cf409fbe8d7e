package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"healthsurveys/internal/model"

	"github.com/redis/go-redis/v9"
)

// SessionCache handles Redis storage of in-progress form sessions.
// Abandoned sessions expire with the TTL.
type SessionCache interface {
	Get(ctx context.Context, sessionID string) (*model.FormSession, error)
	Set(ctx context.Context, session *model.FormSession) error
	Delete(ctx context.Context, sessionID string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new form session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("formsession:%s", id)
}

func (c *sessionCache) Get(ctx context.Context, sessionID string) (*model.FormSession, error) {
	data, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.FormSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Set(ctx context.Context, session *model.FormSession) error {
	session.UpdatedAt = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}
