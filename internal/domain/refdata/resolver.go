package refdata

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/singleflight"
)

// Cache is the minimal key/value contract the resolver needs. Get returns
// ("", nil) on a miss. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// DefaultTTL bounds staleness after out-of-band reference edits that skip
// Invalidate.
const DefaultTTL = 10 * time.Minute

// Resolver is a read-through cache over a reference Repository, keyed by
// (set, label). Labels are immutable in practice, so cached ids stay valid;
// Invalidate covers explicit reference-data changes. Concurrent misses for
// the same key are collapsed into a single repository query.
type Resolver struct {
	repo  Repository
	cache Cache // nil disables caching
	ttl   time.Duration
	sf    singleflight.Group
}

// NewResolver builds a Resolver. A nil cache is allowed and turns every
// Resolve into a repository query.
func NewResolver(repo Repository, cache Cache) *Resolver {
	return &Resolver{repo: repo, cache: cache, ttl: DefaultTTL}
}

func cacheKey(set, label string) string {
	return "ref:" + set + ":" + label
}

// Resolve returns the stable id for (set, label).
func (r *Resolver) Resolve(ctx context.Context, set, label string) (string, error) {
	key := cacheKey(set, label)

	if r.cache != nil {
		if id, err := r.cache.Get(ctx, key); err == nil && id != "" {
			return id, nil
		}
		// Cache failures degrade to a repository read.
	}

	v, err, _ := r.sf.Do(key, func() (any, error) {
		val, err := r.repo.FindByLabel(ctx, set, label)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			_ = r.cache.Set(ctx, key, val.ID, r.ttl)
		}
		return val.ID, nil
	})
	if err != nil {
		return "", errors.Wrap(err, "resolve reference")
	}
	return v.(string), nil
}

// ResolveByID returns the full row for (set, id). Lookups by id are admin
// paths and are not cached.
func (r *Resolver) ResolveByID(ctx context.Context, set, id string) (*Value, error) {
	return r.repo.FindByID(ctx, set, id)
}

// Invalidate drops the cached id for (set, label). Call after editing
// reference data.
func (r *Resolver) Invalidate(ctx context.Context, set, label string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Del(ctx, cacheKey(set, label))
}
