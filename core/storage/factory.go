package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// StoreType represents the type of slot store.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeBolt   StoreType = "bolt"
	StoreTypeRedis  StoreType = "redis"

	DefaultRedisPrefix = "ema-chat:"
)

// NewStore creates a new Store based on the given type.
// Bolt requires WithBoltPath, Redis requires WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return &memoryStore{slots: make(map[string][]byte)}, nil

	case StoreTypeBolt:
		if config.boltPath == "" {
			return nil, fmt.Errorf("%w: bolt store needs a path", ErrInvalidConfig)
		}
		timeout := config.boltTimeout
		if timeout <= 0 {
			timeout = time.Second
		}
		if err := os.MkdirAll(filepath.Dir(config.boltPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		db, err := bolt.Open(config.boltPath, 0o600, &bolt.Options{Timeout: timeout})
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return &boltStore{db: db}, nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, fmt.Errorf("%w: redis store needs a client", ErrInvalidConfig)
		}
		prefix := config.redisPrefix
		if prefix == "" {
			prefix = DefaultRedisPrefix
		}
		return &redisStore{client: config.redisClient, prefix: prefix}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStoreType, storeType)
	}
}
