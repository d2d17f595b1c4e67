package feed

import (
	"context"
	"sync"
	"time"
)

// Observer receives cache and fetch outcome signals. All methods must be
// cheap; they are called under the cache lock.
type Observer interface {
	CacheHit()
	CacheMiss()
	FetchSucceeded()
	FetchFailed()
}

// SnapshotCache gates upstream fetches behind a time-to-live. The cache is
// the sole owner of the current Snapshot; a refresh replaces it wholesale.
//
// The fetch runs while the mutex is held, so concurrent misses coalesce:
// late callers block on the lock and then observe the snapshot the first
// caller installed, instead of triggering fetches of their own.
type SnapshotCache struct {
	mu     sync.Mutex
	source Source
	ttl    time.Duration
	obs    Observer

	snap        *Snapshot
	lastFetched int64
}

// NewSnapshotCache creates a cache over the given source. obs may be nil.
func NewSnapshotCache(source Source, ttl time.Duration, obs Observer) *SnapshotCache {
	return &SnapshotCache{source: source, ttl: ttl, obs: obs}
}

// Get returns the cached snapshot when now-fetchedAt is within the TTL,
// otherwise fetches a fresh one. On fetch failure the previous snapshot is
// kept but not returned; the caller gets ErrUpstreamUnavailable wrapped
// around the transport error and decides what to do with it.
//
// The clock is an explicit input so tests control TTL expiry.
func (c *SnapshotCache) Get(ctx context.Context, now time.Time) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil && now.Unix()-c.snap.FetchedAt <= int64(c.ttl.Seconds()) {
		if c.obs != nil {
			c.obs.CacheHit()
		}
		return c.snap, nil
	}
	if c.obs != nil {
		c.obs.CacheMiss()
	}

	records, err := c.source.Fetch(ctx)
	if err != nil {
		if c.obs != nil {
			c.obs.FetchFailed()
		}
		return nil, err
	}
	if c.obs != nil {
		c.obs.FetchSucceeded()
	}

	c.snap = &Snapshot{Records: records, FetchedAt: now.Unix()}
	c.lastFetched = c.snap.FetchedAt
	return c.snap, nil
}

// LastFetchedAt reports the epoch seconds of the last successful fetch,
// zero when none has happened yet. Used by the health endpoint.
func (c *SnapshotCache) LastFetchedAt() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFetched
}
