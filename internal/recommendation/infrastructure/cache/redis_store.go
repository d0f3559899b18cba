package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces recommendation entries in Redis.
const DefaultRedisPrefix = "nextup:rec"

// RedisStore shares entries between processes through Redis. Entries are
// written with the entry TTL so Redis expires them on its own.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// redisKey builds keys of the form {prefix}:{variant}:{key}.
func (s *RedisStore) redisKey(key string, variant Variant) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, variant, key)
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, key string, variant Variant) (*Entry, error) {
	data, err := s.client.Get(ctx, s.redisKey(key, variant)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, err
	}
	if entry.Key != key || entry.Variant != variant {
		return nil, fmt.Errorf("%w: entry stored under wrong key", domain.ErrCorruptEntry)
	}
	return entry, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, entry *Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.redisKey(entry.Key, entry.Variant), data, entry.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string, variant Variant) error {
	if err := s.client.Del(ctx, s.redisKey(key, variant)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Entries implements Store. Undecodable entries are skipped.
func (s *RedisStore) Entries(ctx context.Context) ([]*Entry, error) {
	var out []*Entry
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		rest := strings.TrimPrefix(iter.Val(), s.prefix+":")
		variant, key, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		entry, err := s.Load(ctx, key, Variant(variant))
		if err != nil {
			continue
		}
		out = append(out, entry)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return out, nil
}
