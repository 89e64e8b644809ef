// Package remotecache mirrors a worldstate.Cache into Redis, the way
// the teacher's internal/cache.QueryCache fronts reads with a
// cache-aside Redis layer. It exists for multi-process planner
// deployments where several planner instances share one Domain and
// would otherwise each warm their WorldStateCache from a cold start: a
// process that already has the "ever seen this predicate" set can
// publish it, and a fresh process can seed from Redis instead of
// relying solely on Problem's static Warm pass.
package remotecache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"mud-platform-backend/internal/worldstate"
)

const keyPrefix = "planner:cache:"

// Mirror publishes and restores worldstate.Cache snapshots through a
// Redis client.
type Mirror struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a Mirror backed by client. ttl of zero disables
// expiration (entries persist until explicitly cleared or overwritten).
func New(client *redis.Client, ttl time.Duration) *Mirror {
	return &Mirror{client: client, ttl: ttl}
}

func key(domainUUID string) string {
	return keyPrefix + domainUUID
}

// Publish snapshots c and writes its seen-predicate set to Redis, keyed
// by the domain uuid c is currently warmed for. A cache with no
// domain uuid set yet (never invalidated or warmed) is a no-op.
func (m *Mirror) Publish(ctx context.Context, c *worldstate.Cache) error {
	domainUUID, predicates := c.Snapshot()
	if domainUUID == "" {
		return nil
	}
	k := key(domainUUID)
	pipe := m.client.TxPipeline()
	pipe.Del(ctx, k)
	if len(predicates) > 0 {
		members := make([]interface{}, len(predicates))
		for i, p := range predicates {
			members[i] = p
		}
		pipe.SAdd(ctx, k, members...)
		if m.ttl > 0 {
			pipe.Expire(ctx, k, m.ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Restore reads the seen-predicate set for domainUUID out of Redis and
// warms c with it. A missing key (cache miss) restores nothing and
// returns no error.
func (m *Mirror) Restore(ctx context.Context, c *worldstate.Cache, domainUUID string) error {
	predicates, err := m.client.SMembers(ctx, key(domainUUID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}
	if len(predicates) == 0 {
		return nil
	}
	c.Warm(domainUUID, predicates)
	return nil
}

// Clear deletes the mirrored entry for domainUUID, used when a Domain
// is rebuilt and its old uuid's cache entry would otherwise linger in
// Redis until its TTL expires.
func (m *Mirror) Clear(ctx context.Context, domainUUID string) error {
	return m.client.Del(ctx, key(domainUUID)).Err()
}
