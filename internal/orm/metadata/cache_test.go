package metadata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/restbind/internal/orm/schema"
)

type countingStore struct {
	mu      sync.Mutex
	data    map[string]Catalog
	loads   int
	saves   int
	loadErr error
}

func newCountingStore() *countingStore {
	return &countingStore{data: make(map[string]Catalog)}
}

func (s *countingStore) Load(_ context.Context, entity string) (Catalog, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	c, ok := s.data[entity]
	return c, ok, nil
}

func (s *countingStore) Save(_ context.Context, entity string, c Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.data[entity] = c
	return nil
}

func TestCache_Get(t *testing.T) {
	store := newCountingStore()
	cache := NewCache(store, nil)
	s := newMemberSchema()

	first, err := cache.Get(context.Background(), s)
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, first.Keys(), second.Keys())
	assert.Equal(t, 1, store.loads)
	assert.Equal(t, 1, store.saves)

	cache.Invalidate(s.Name)
	_, err = cache.Get(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 2, store.loads, "invalidated entries are reloaded from the store")
	assert.Equal(t, 1, store.saves, "store hits are not saved again")
}

func TestCache_Concurrent(t *testing.T) {
	cache := NewCache(nil, nil)
	s := newMemberSchema()

	var wg sync.WaitGroup
	results := make([]Catalog, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := cache.Get(context.Background(), s)
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range results {
		assert.Equal(t, results[0].Keys(), c.Keys())
	}
}

func TestCache_StoreLoadFailure(t *testing.T) {
	store := newCountingStore()
	store.loadErr = errors.New("connection refused")
	cache := NewCache(store, nil)

	catalog, err := cache.Get(context.Background(), newMemberSchema())
	require.NoError(t, err, "store failures fall back to building")
	assert.Contains(t, catalog, "title")
}

func TestCache_BuildError(t *testing.T) {
	s := schema.NewEntitySchema("Broken").MustAdd(schema.Synonym("name", "missing"))

	_, err := NewCache(nil, nil).Get(context.Background(), s)
	assert.ErrorIs(t, err, schema.ErrUnknownField)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "", time.Minute)
	ctx := context.Background()

	_, found, err := store.Load(ctx, "Member")
	require.NoError(t, err)
	assert.False(t, found)

	catalog, err := Build(newMemberSchema())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "Member", catalog))

	assert.True(t, mr.Exists("restbind:catalog:Member"))
	assert.Equal(t, time.Minute, mr.TTL("restbind:catalog:Member"))

	loaded, found, err := store.Load(ctx, "Member")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, catalog.Keys(), loaded.Keys())

	title := loaded["title"]
	assert.Equal(t, "title", title.Name)
	assert.Equal(t, "string", title.Type)
	assert.True(t, title.Required)
	require.NotNil(t, title.MinLength)
	assert.Equal(t, 2, *title.MinLength)
}

func TestRedisStore_CorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, mr.Set("restbind:catalog:Member", "not msgpack"))

	_, _, err := NewRedisStore(client, "", 0).Load(context.Background(), "Member")
	assert.Error(t, err)
}
