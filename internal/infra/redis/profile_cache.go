package redis

import (
	"context"
	"math/rand"
	"time"

	"amia-console/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ProfileLoader fetches a profile from the account store.
type ProfileLoader interface {
	LoadProfile(ctx context.Context, id string) (domain.Profile, error)
}

// ProfileCache caches profiles in Redis (hash per profile) and falls back to a
// loader on cache miss. The password hash is never cached.
// Stored as: HSET console:profile:{id} email .. full_name .. role ..
type ProfileCache struct {
	client *redis.Client
	loader ProfileLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewProfileCache(client *redis.Client, loader ProfileLoader, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ProfileCache) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	key := c.key(id)
	if fields, err := c.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
		return profileFromHash(id, fields), nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if fields, err := c.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
			return profileFromHash(id, fields), nil
		}

		profile, err := c.loader.LoadProfile(ctx, id)
		if err != nil {
			return domain.Profile{}, err
		}

		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key,
			"email", profile.Email,
			"full_name", profile.FullName,
			"role", string(profile.Role),
		)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return profile, nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return result.(domain.Profile), nil
}

// Invalidate drops a cached profile.
func (c *ProfileCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *ProfileCache) key(id string) string {
	return "console:profile:" + id
}

func profileFromHash(id string, fields map[string]string) domain.Profile {
	return domain.Profile{
		ID:       id,
		Email:    fields["email"],
		FullName: fields["full_name"],
		Role:     domain.Role(fields["role"]),
	}
}

func (c *ProfileCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
