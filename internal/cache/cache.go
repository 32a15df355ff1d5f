// Package cache provides the byte-oriented store Market Intelligence
// memoizes its bidder/domain/archetype lookups in. A process-local map
// backs every cache by default; setting REDIS_ADDR switches lookups for
// every Engine in the process to a shared redis.Client without any
// caller-visible change, so a fleet of bidding-engine replicas can share
// one warmed cache instead of each cold-starting its own.
package cache

import (
	"context"
	"os"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Kind labels which Market Intelligence table a cached lookup came from —
// intelligence.Engine passes it through to Get/Set so a caller recording
// hit/miss metrics can break them down by table.
type Kind string

const (
	KindBidder    Kind = "bidder"
	KindDomain    Kind = "domain"
	KindArchetype Kind = "archetype"
)

// Cache is the lookup-memoization store behind bidder/domain/archetype
// enrichment: a byte-oriented get/set with a per-key TTL, keyed on the
// query fields that determine the result (bidder ID, domain name,
// platform, ...).
type Cache interface {
	Get(kind Kind, key string) ([]byte, bool)
	Set(kind Kind, key string, val []byte, ttl time.Duration)
}

type memory struct {
	mu sync.Mutex
	m  map[string]entry
}

type entry struct {
	b   []byte
	exp time.Time
}

// New returns an in-process memory cache, the default for a single
// bidding-engine instance with no shared cache configured.
func New() Cache { return &memory{m: make(map[string]entry)} }

func (c *memory) Get(kind Kind, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[namespaced(kind, key)]
	if !ok || (!e.exp.IsZero() && time.Now().After(e.exp)) {
		return nil, false
	}
	return e.b, true
}

func (c *memory) Set(kind Kind, key string, val []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{b: append([]byte(nil), val...)}
	if ttl > 0 {
		e.exp = time.Now().Add(ttl)
	}
	c.m[namespaced(kind, key)] = e
}

// namespaced prefixes key with kind so that a bidder lookup and a domain
// lookup never collide even if Market Intelligence ever produced the same
// raw key for both.
func namespaced(kind Kind, key string) string {
	return string(kind) + ":" + key
}

// redisCache shares enrichment lookups across every bidding-engine
// replica in a deployment, so a cold-started instance inherits the
// cluster's warmed bidder/domain/archetype results instead of rebuilding
// them round by round.
type redisCache struct{ r *redis.Client }

// NewAuto returns a redisCache when REDIS_ADDR is set, otherwise a memory
// cache.
func NewAuto() Cache {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return &redisCache{r: redis.NewClient(&redis.Options{Addr: addr})}
	}
	return New()
}

// redisOpTimeout bounds a single Redis round trip. Market Intelligence
// enrichment results are small and disposable — on a timeout the caller
// falls back to recomputing the lookup rather than blocking the decision.
const redisOpTimeout = 500 * time.Millisecond

func (r *redisCache) Get(kind Kind, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	v, err := r.r.Get(ctx, namespaced(kind, key)).Bytes()
	if err != nil {
		return nil, false
	}
	return v, true
}

func (r *redisCache) Set(kind Kind, key string, val []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	_ = r.r.Set(ctx, namespaced(kind, key), val, ttl).Err()
}
