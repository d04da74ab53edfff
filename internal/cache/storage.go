package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const storageOpTimeout = 2 * time.Second

// Storage implements fiber.Storage on Redis. Every key is stored under
// prefix, and Reset only removes keys under that prefix.
type Storage struct {
	rdb    *redis.Client
	prefix string
}

// NewStorage returns a fiber.Storage backed by rdb.
func NewStorage(rdb *redis.Client, prefix string) *Storage {
	return &Storage{rdb: rdb, prefix: prefix}
}

func (s *Storage) key(k string) string {
	return s.prefix + k
}

// Get returns nil, nil when the key does not exist.
func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()

	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set ignores empty keys and values. An exp of 0 stores without expiry.
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()
	return s.rdb.Set(ctx, s.key(key), val, exp).Err()
}

func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()
	return s.rdb.Del(ctx, s.key(key)).Err()
}

// Reset deletes every key under the prefix.
func (s *Storage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()

	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Close is a no-op: the client is shared and closed by its owner.
func (s *Storage) Close() error {
	return nil
}
