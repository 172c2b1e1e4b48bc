package refcache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Keys for the reference lists the forms pick from.
const (
	KeyAssets       = "productos"
	KeyResponsibles = "responsables"
	KeyDepartments  = "departamentos"
	KeyUsers        = "usuarios"
)

// Cache keeps reference lists for a short while. The custody snapshot is
// never stored here.
type Cache struct {
	c *cache.Cache
}

func New(ttl, cleanup time.Duration) *Cache {
	return &Cache{c: cache.New(ttl, cleanup)}
}

// Invalidate drops key after a mutation of that list.
func (r *Cache) Invalidate(keys ...string) {
	if r == nil {
		return
	}
	for _, k := range keys {
		r.c.Delete(k)
	}
}

// Fetch returns the cached list for key or loads and stores it. Failed loads
// are not cached.
func Fetch[T any](ctx context.Context, r *Cache, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if r != nil {
		if v, ok := r.c.Get(key); ok {
			if items, ok := v.([]T); ok {
				return items, nil
			}
		}
	}
	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if r != nil {
		r.c.SetDefault(key, items)
	}
	return items, nil
}
