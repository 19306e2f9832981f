package reqcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohmanhakim/botlist-cache/internal/fetcher"
	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
	"github.com/rohmanhakim/botlist-cache/pkg/limiter"
	"github.com/rohmanhakim/botlist-cache/pkg/timeutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, rawURL string) url.URL {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return *u
}

// recordingSink is a test double for metadata.MetadataSink
type recordingSink struct {
	errors    []metadata.ErrorCause
	lookups   []metadata.LookupOutcome
	artifacts []string
	fetches   int
}

func (r *recordingSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	r.errors = append(r.errors, cause)
}

func (r *recordingSink) RecordFetch(event metadata.FetchEvent) {
	r.fetches++
}

func (r *recordingSink) RecordCacheLookup(identity string, outcome metadata.LookupOutcome) {
	r.lookups = append(r.lookups, outcome)
}

func (r *recordingSink) RecordArtifact(kind metadata.ArtifactKind, path string, attrs []metadata.Attribute) {
	r.artifacts = append(r.artifacts, path)
}

// fetcherMock is a testify mock for fetcher.Fetcher
type fetcherMock struct {
	mock.Mock
}

func (f *fetcherMock) Fetch(ctx context.Context, fetchParam fetcher.FetchParam) (fetcher.FetchResult, failure.ClassifiedError) {
	args := f.Called(ctx, fetchParam)
	result := args.Get(0).(fetcher.FetchResult)
	if args.Get(1) == nil {
		return result, nil
	}
	return result, args.Get(1).(failure.ClassifiedError)
}

// countingServer serves body with contentType and counts the requests it receives.
func countingServer(t *testing.T, contentType string, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

type cacheFixture struct {
	cache   *RequestCache
	store   *Store
	sink    *recordingSink
	clock   *timeutil.FixedClock
	delayer *limiter.FixedDelayer
	path    string
}

func newCacheFixture(t *testing.T, path string) cacheFixture {
	t.Helper()
	sink := &recordingSink{}
	store := OpenStore(path, sink)

	htmlFetcher := fetcher.NewHtmlFetcher(sink)
	htmlFetcher.Init(&http.Client{Timeout: 5 * time.Second}, "reqcache-test")
	jsonFetcher := fetcher.NewJsonFetcher(sink)
	jsonFetcher.Init(&http.Client{Timeout: 5 * time.Second}, "reqcache-test")

	delayer := limiter.NewFixedDelayer(50 * time.Millisecond)
	delayer.SetSleeper(func(ctx context.Context, d time.Duration) error { return nil })

	clock := timeutil.NewFixedClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	cache := NewRequestCache(store, &htmlFetcher, &jsonFetcher, delayer, sink)
	cache.SetClock(clock)

	return cacheFixture{
		cache:   cache,
		store:   store,
		sink:    sink,
		clock:   clock,
		delayer: delayer,
		path:    path,
	}
}
