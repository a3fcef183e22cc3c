package storage

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreOption is a functional option for configuring a slot store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	boltPath    string
	boltTimeout time.Duration

	redisClient *redis.Client
	redisPrefix string
}

// WithBoltPath sets the database file used by the bolt store.
func WithBoltPath(path string) StoreOption {
	return func(c *storeConfig) {
		c.boltPath = path
	}
}

// WithBoltTimeout sets how long opening the bolt file waits for the file lock.
func WithBoltTimeout(timeout time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.boltTimeout = timeout
	}
}

// WithRedisClient sets the Redis client for the Redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisPrefix sets the prefix prepended to every slot key.
func WithRedisPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.redisPrefix = prefix
	}
}
