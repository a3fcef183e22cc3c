package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

func (s *redisStore) Get(ctx context.Context, slot string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, slot string, value []byte) error {
	return s.client.Set(ctx, s.prefix+slot, value, 0).Err()
}

func (s *redisStore) Delete(ctx context.Context, slot string) error {
	return s.client.Del(ctx, s.prefix+slot).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
