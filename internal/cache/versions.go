package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/cinetheque/api/pkg/logger"
)

// Cache prefixes for the list endpoints.
const (
	PrefixFilms         = "films:list"
	PrefixAuthors       = "authors:list"
	PrefixSpectators    = "spectators:list"
	PrefixFilmReviews   = "film_reviews:list"
	PrefixAuthorReviews = "author_reviews:list"
)

// Versions maintains a monotonic version counter per resource prefix. The
// current version is embedded in every list cache key, so bumping the counter
// orphans all previously cached keys in a single round-trip; orphaned entries
// are reclaimed by TTL expiry.
//
// Every read fails open: when the store is unreachable the caller gets
// version 1 and the surrounding request degrades to a cache miss.
type Versions struct {
	store Store
	log   *zap.Logger
}

// NewVersions builds a version counter service over the supplied store.
func NewVersions(store Store) *Versions {
	return &Versions{
		store: store,
		log:   logger.WithModule("cache"),
	}
}

// Version returns the current version for a prefix, initialising it to 1 when
// absent. Store failures yield version 1.
func (v *Versions) Version(ctx context.Context, prefix string) int64 {
	if v == nil || v.store == nil {
		return 1
	}

	key := versionKey(prefix)
	raw, ok, err := v.store.Get(ctx, key)
	if err != nil {
		v.log.Debug("version read failed, assuming 1", zap.String("prefix", prefix), zap.Error(err))
		return 1
	}
	if ok {
		if version, parseErr := strconv.ParseInt(string(raw), 10, 64); parseErr == nil && version > 0 {
			return version
		}
	}

	// Increment materialises a missing counter at 1 atomically.
	version, err := v.store.Increment(ctx, key)
	if err != nil {
		v.log.Debug("version init failed, assuming 1", zap.String("prefix", prefix), zap.Error(err))
		return 1
	}
	return version
}

// Bump invalidates every cached list for the prefix by advancing its version.
// A counter evicted from the store is recreated rather than failing.
func (v *Versions) Bump(ctx context.Context, prefix string) {
	if v == nil || v.store == nil {
		return
	}

	key := versionKey(prefix)
	version, err := v.store.Increment(ctx, key)
	if err != nil {
		// Cached entries stay warm for at most their TTL.
		v.log.Warn("version bump failed", zap.String("prefix", prefix), zap.Error(err))
		return
	}

	// An absent counter reads as version 1, and Increment materialises a
	// missing counter at 1. The bump must land past the implicit initial
	// version or cold-counter invalidations would be no-ops.
	if version == 1 {
		if _, err := v.store.Increment(ctx, key); err != nil {
			v.log.Warn("version bump failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}

// ListKey builds the composite cache key for a list view:
// prefix + ":v" + version + ":" + actor part + ":q" + query digest.
// The actor part isolates per-user result variation; the query digest keeps
// differing filter/sort/pagination combinations from colliding.
func (v *Versions) ListKey(ctx context.Context, prefix, actorID, rawQuery string) string {
	version := v.Version(ctx, prefix)

	actorPart := "anon"
	if actorID != "" {
		actorPart = "u" + actorID
	}

	digest := md5.Sum([]byte(rawQuery))

	return fmt.Sprintf("%s:v%d:%s:q%s", prefix, version, actorPart, hex.EncodeToString(digest[:]))
}

func versionKey(prefix string) string {
	return prefix + ":version"
}
