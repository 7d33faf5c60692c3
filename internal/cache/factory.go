// Package cache persists the last session and message snapshots seen for a
// user so a restarted client can render before its listeners deliver.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/servicesaver/servicesaver/internal/session"
)

// Driver names a cache backend.
type Driver string

const (
	DriverSQLite Driver = "sqlite"
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
	DriverNone   Driver = "none"
)

var (
	// ErrInvalidDriver is returned for an unknown driver name.
	ErrInvalidDriver = errors.New("invalid cache driver")

	// ErrInvalidConfig is returned when a driver is missing a required option.
	ErrInvalidConfig = errors.New("invalid cache config")
)

// Option is a functional option for configuring a cache.
type Option func(*options)

type options struct {
	path        string
	redisClient *redis.Client
	redisTTL    time.Duration
}

// WithPath sets the sqlite database file.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithRedisClient sets the Redis client for the redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) { o.redisClient = client }
}

// WithRedisTTL sets the TTL for Redis keys.
func WithRedisTTL(ttl time.Duration) Option {
	return func(o *options) { o.redisTTL = ttl }
}

// New creates a cache for the driver. DriverNone and the empty driver
// return a nil cache and no error.
func New(driver Driver, opts ...Option) (session.Cache, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch driver {
	case DriverNone, "":
		return nil, nil
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		if o.path == "" {
			return nil, fmt.Errorf("%w: sqlite needs a path", ErrInvalidConfig)
		}
		c, err := OpenSQLite(o.path)
		if err != nil {
			return nil, err
		}
		return c, nil
	case DriverRedis:
		if o.redisClient == nil {
			return nil, fmt.Errorf("%w: redis needs a client", ErrInvalidConfig)
		}
		return NewRedis(o.redisClient, o.redisTTL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, driver)
	}
}

// snapshot kinds, used as row and key suffixes.
const (
	kindSession  = "session"
	kindMessages = "messages"
)

// A stored "null" session means the user had no session document.
func encodeSession(s *session.Session) ([]byte, error) {
	return json.Marshal(s)
}

func decodeSession(b []byte) (*session.Session, error) {
	var s *session.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode cached session: %w", err)
	}
	return s, nil
}

func encodeMessages(msgs []session.Message) ([]byte, error) {
	if msgs == nil {
		msgs = []session.Message{}
	}
	return json.Marshal(msgs)
}

func decodeMessages(b []byte) ([]session.Message, error) {
	var msgs []session.Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, fmt.Errorf("decode cached messages: %w", err)
	}
	return msgs, nil
}
