package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// RedisStore keeps msgpack-encoded catalogs in Redis
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store. A zero ttl keeps entries until evicted.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "restbind:catalog:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(entity string) string {
	return s.prefix + entity
}

// Load fetches a catalog. found is false when the key does not exist.
func (s *RedisStore) Load(ctx context.Context, entity string) (Catalog, bool, error) {
	data, err := s.client.Get(ctx, s.key(entity)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", entity, err)
	}

	var catalog Catalog
	if err := msgpack.Unmarshal(data, &catalog); err != nil {
		return nil, false, fmt.Errorf("decode catalog %s: %w", entity, err)
	}
	return catalog, true, nil
}

// Save stores a catalog
func (s *RedisStore) Save(ctx context.Context, entity string, catalog Catalog) error {
	data, err := msgpack.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("encode catalog %s: %w", entity, err)
	}
	if err := s.client.Set(ctx, s.key(entity), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", entity, err)
	}
	return nil
}
