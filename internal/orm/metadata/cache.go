package metadata

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/conduit-lang/restbind/internal/orm/schema"
)

// Store persists built catalogs so that several processes can share them
type Store interface {
	Load(ctx context.Context, entity string) (Catalog, bool, error)
	Save(ctx context.Context, entity string, catalog Catalog) error
}

// Cache memoizes catalogs per entity. Concurrent first requests for the same
// entity build the catalog once.
type Cache struct {
	store  Store
	logger *zap.Logger
	group  singleflight.Group

	mu    sync.RWMutex
	local map[string]Catalog
}

// NewCache creates a cache. store may be nil for a process-local cache.
func NewCache(store Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:  store,
		logger: logger,
		local:  make(map[string]Catalog),
	}
}

// Get returns the catalog for s, building it on first use
func (c *Cache) Get(ctx context.Context, s *schema.EntitySchema) (Catalog, error) {
	c.mu.RLock()
	catalog, ok := c.local[s.Name]
	c.mu.RUnlock()
	if ok {
		return catalog, nil
	}

	v, err, _ := c.group.Do(s.Name, func() (interface{}, error) {
		return c.load(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return v.(Catalog), nil
}

func (c *Cache) load(ctx context.Context, s *schema.EntitySchema) (Catalog, error) {
	if c.store != nil {
		catalog, found, err := c.store.Load(ctx, s.Name)
		if err != nil {
			c.logger.Warn("catalog store load failed",
				zap.String("entity", s.Name),
				zap.Error(err))
		} else if found {
			c.remember(s.Name, catalog)
			return catalog, nil
		}
	}

	catalog, err := Build(s)
	if err != nil {
		return nil, fmt.Errorf("build catalog for %s: %w", s.Name, err)
	}

	if c.store != nil {
		if err := c.store.Save(ctx, s.Name, catalog); err != nil {
			c.logger.Warn("catalog store save failed",
				zap.String("entity", s.Name),
				zap.Error(err))
		}
	}

	c.remember(s.Name, catalog)
	return catalog, nil
}

func (c *Cache) remember(name string, catalog Catalog) {
	c.mu.Lock()
	c.local[name] = catalog
	c.mu.Unlock()
}

// Invalidate drops the local copy of an entity's catalog
func (c *Cache) Invalidate(name string) {
	c.mu.Lock()
	delete(c.local, name)
	c.mu.Unlock()
}
