package reqcache

import (
	"errors"
	"sync"
	"time"

	"github.com/rohmanhakim/botlist-cache/internal/fetcher"
	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/pkg/limiter"
	"github.com/rohmanhakim/botlist-cache/pkg/timeutil"
)

/*
RequestCache answers requests from the Store when it can and from the
network when it must.

Responsibilities
- Derive the identity of every request
- Decide hit, miss, stale or forced for that identity
- Fetch through the strategy matching the request kind
- Store the filtered payload and rewrite the cache file

A hit never touches the network or the file. A failed fetch or parse
leaves the store exactly as it was.
*/
type RequestCache struct {
	mu                sync.Mutex
	store             *Store
	markupFetcher     fetcher.Fetcher
	structuredFetcher fetcher.Fetcher
	delayer           limiter.Delayer
	clock             timeutil.Clock
	metadataSink      metadata.MetadataSink
}

// NewRequestCache wires a store to its fetch strategies. delayer may be nil,
// in which case rate-limited requests are sent without a pause.
func NewRequestCache(
	store *Store,
	markupFetcher fetcher.Fetcher,
	structuredFetcher fetcher.Fetcher,
	delayer limiter.Delayer,
	metadataSink metadata.MetadataSink,
) *RequestCache {
	return &RequestCache{
		store:             store,
		markupFetcher:     markupFetcher,
		structuredFetcher: structuredFetcher,
		delayer:           delayer,
		clock:             timeutil.SystemClock{},
		metadataSink:      metadataSink,
	}
}

// SetClock allows injecting a custom clock for testing
func (c *RequestCache) SetClock(clock timeutil.Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
}

func (c *RequestCache) Store() *Store {
	return c.store
}

// lookup returns the stored entry when it can be served as is.
// An entry of the other kind under the same identity counts as a miss.
// Callers must hold c.mu.
func (c *RequestCache) lookup(identity string, kind EntryKind, maxAge *time.Duration, force bool) (Entry, bool) {
	entry, ok := c.store.Get(identity)
	switch {
	case !ok || entry.kind != kind:
		c.metadataSink.RecordCacheLookup(identity, metadata.LookupMiss)
		return Entry{}, false
	case force:
		c.metadataSink.RecordCacheLookup(identity, metadata.LookupForced)
		return Entry{}, false
	case IsStale(entry, maxAge, false, c.clock.Now()):
		c.metadataSink.RecordCacheLookup(identity, metadata.LookupStale)
		return Entry{}, false
	default:
		c.metadataSink.RecordCacheLookup(identity, metadata.LookupHit)
		return entry, true
	}
}

func (c *RequestCache) recordError(action string, rawURL string, err error) {
	cause := metadata.CauseUnknown
	var cacheErr *CacheError
	if errors.As(err, &cacheErr) {
		cause = mapCacheErrorToMetadataCause(cacheErr)
	}
	attrs := []metadata.Attribute{metadata.NewAttr(metadata.AttrURL, rawURL)}
	if cacheErr != nil && cacheErr.Identity != "" {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrIdentity, cacheErr.Identity))
	}
	c.metadataSink.RecordError(
		time.Now(),
		"reqcache",
		action,
		cause,
		err.Error(),
		attrs,
	)
}
