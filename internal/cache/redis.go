package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/servicesaver/servicesaver/internal/session"
)

const (
	// Redis key prefix for snapshots
	keyPrefix = "servicesaver:"
	// Default TTL for snapshot keys (7 days)
	defaultTTL = 7 * 24 * time.Hour
)

// Redis shares snapshots between clients on different machines.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// key constructs the Redis key for a user's snapshot.
func (c *Redis) key(uid, kind string) string {
	return keyPrefix + uid + ":" + kind
}

func (c *Redis) get(ctx context.Context, uid, kind string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.key(uid, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s snapshot: %w", kind, err)
	}
	return val, true, nil
}

// SaveSession implements session.Cache.
func (c *Redis) SaveSession(ctx context.Context, uid string, s *session.Session) error {
	b, err := encodeSession(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(uid, kindSession), b, c.ttl).Err()
}

// LoadSession implements session.Cache.
func (c *Redis) LoadSession(ctx context.Context, uid string) (*session.Session, bool, error) {
	b, ok, err := c.get(ctx, uid, kindSession)
	if err != nil || !ok {
		return nil, false, err
	}
	s, err := decodeSession(b)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// SaveMessages implements session.Cache.
func (c *Redis) SaveMessages(ctx context.Context, uid string, msgs []session.Message) error {
	b, err := encodeMessages(msgs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(uid, kindMessages), b, c.ttl).Err()
}

// LoadMessages implements session.Cache.
func (c *Redis) LoadMessages(ctx context.Context, uid string) ([]session.Message, bool, error) {
	b, ok, err := c.get(ctx, uid, kindMessages)
	if err != nil || !ok {
		return nil, false, err
	}
	msgs, err := decodeMessages(b)
	if err != nil {
		return nil, false, err
	}
	return msgs, true, nil
}

// Clear implements session.Cache.
func (c *Redis) Clear(ctx context.Context, uid string) error {
	return c.client.Del(ctx, c.key(uid, kindSession), c.key(uid, kindMessages)).Err()
}

// Close implements session.Cache.
func (c *Redis) Close() error {
	return c.client.Close()
}
