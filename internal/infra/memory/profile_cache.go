package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"amia-console/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ProfileLoader fetches a profile from the account store.
type ProfileLoader interface {
	LoadProfile(ctx context.Context, id string) (domain.Profile, error)
}

// ProfileCache caches profiles with TTL to avoid a lookup per session check.
type ProfileCache struct {
	loader ProfileLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedProfile
}

type cachedProfile struct {
	profile   domain.Profile
	expiresAt time.Time
}

func NewProfileCache(loader ProfileLoader, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedProfile),
	}
}

func (c *ProfileCache) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	if p, ok := c.lookup(id, c.clock()); ok {
		return p, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		now := c.clock()
		if p, ok := c.lookup(id, now); ok {
			return p, nil
		}

		profile, err := c.loader.LoadProfile(ctx, id)
		if err != nil {
			return domain.Profile{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedProfile{profile: profile, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return profile, nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return result.(domain.Profile), nil
}

// Invalidate drops a cached profile.
func (c *ProfileCache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
}

func (c *ProfileCache) lookup(id string, now time.Time) (domain.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[id]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Profile{}, false
	}
	return entry.profile, true
}

func (c *ProfileCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
