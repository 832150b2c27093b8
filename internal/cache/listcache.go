package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cinetheque/api/pkg/logger"
	"github.com/cinetheque/api/pkg/metrics"
)

// DefaultListTTL bounds how long an orphaned list payload can linger.
const DefaultListTTL = 15 * time.Minute

// ListCache caches serialized list responses under versioned keys. Store
// failures never surface to the read path: a broken cache behaves as
// always-miss.
type ListCache struct {
	store    Store
	versions *Versions
	ttl      time.Duration
	log      *zap.Logger
}

// NewListCache builds a list cache with the default 15 minute TTL.
func NewListCache(store Store) *ListCache {
	return NewListCacheWithTTL(store, DefaultListTTL)
}

// NewListCacheWithTTL builds a list cache with an explicit payload TTL.
// Non-positive values fall back to DefaultListTTL.
func NewListCacheWithTTL(store Store, ttl time.Duration) *ListCache {
	if ttl <= 0 {
		ttl = DefaultListTTL
	}
	return &ListCache{
		store:    store,
		versions: NewVersions(store),
		ttl:      ttl,
		log:      logger.WithModule("cache"),
	}
}

// Versions exposes the underlying version counters.
func (l *ListCache) Versions() *Versions {
	if l == nil {
		return nil
	}
	return l.versions
}

// Fetch looks up the cached payload for a list request. It returns the
// versioned key (for a later Save) and the payload when present.
func (l *ListCache) Fetch(ctx context.Context, prefix, actorID, rawQuery string) (key string, payload []byte, hit bool) {
	if l == nil || l.store == nil {
		return "", nil, false
	}

	key = l.versions.ListKey(ctx, prefix, actorID, rawQuery)

	payload, ok, err := l.store.Get(ctx, key)
	if err != nil {
		metrics.ListCacheLookups.WithLabelValues(prefix, "error").Inc()
		l.log.Debug("list cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		return key, nil, false
	}
	if !ok {
		metrics.ListCacheLookups.WithLabelValues(prefix, "miss").Inc()
		return key, nil, false
	}

	metrics.ListCacheLookups.WithLabelValues(prefix, "hit").Inc()
	return key, payload, true
}

// Save stores a serialized list payload under the supplied versioned key.
// Failures are logged and swallowed.
func (l *ListCache) Save(ctx context.Context, key string, payload []byte) {
	if l == nil || l.store == nil || key == "" {
		return
	}

	if err := l.store.Set(ctx, key, payload, l.ttl); err != nil {
		l.log.Debug("list cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate orphans every cached list for the prefix. Call exactly once per
// successful mutation of the underlying resource.
func (l *ListCache) Invalidate(ctx context.Context, prefix string) {
	if l == nil {
		return
	}

	l.versions.Bump(ctx, prefix)
	metrics.CacheInvalidations.WithLabelValues(prefix).Inc()
}
