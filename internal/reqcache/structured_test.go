package reqcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohmanhakim/botlist-cache/internal/fetcher"
	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const commentsPayload = `{
  "data": [{"author": "AutoWikibot", "score": 3}, {"author": "alice", "score": 1}],
  "metadata": {"total": 2},
  "took": 12
}`

func TestFetchStructured_TwoIdenticalRequestsHitTheNetworkOnce(t *testing.T) {
	server, hits := countingServer(t, "application/json", commentsPayload)
	f := newCacheFixture(t, filepath.Join(t.TempDir(), "cache.json"))
	req := NewStructuredRequest(server.URL, map[string]string{"author": "AutoWikibot", "size": "500"})

	first, err := f.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)
	second, err := f.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	assert.Len(t, f.sink.artifacts, 1)
	assert.JSONEq(t, string(first.Raw()), string(second.Raw()))
	assert.Equal(t, "AutoWikibot", second.Get("data.0.author").String())
	assert.Equal(t, int64(2), second.Get("metadata.total").Int())
}

func TestFetchStructured_SendsEveryParamButStoresNoCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hunter2", r.URL.Query().Get("api_key"))
		assert.Equal(t, "alice", r.URL.Query().Get("author"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()
	path := filepath.Join(t.TempDir(), "cache.json")
	f := newCacheFixture(t, path)

	_, err := f.cache.FetchStructured(context.Background(),
		NewStructuredRequest(server.URL, map[string]string{"api_key": "hunter2", "author": "alice"}))
	require.Nil(t, err)

	assert.Equal(t, []string{server.URL + "_author_alice"}, f.store.Identities())
	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.NotContains(t, string(content), "hunter2")
}

func TestFetchStructured_FieldProjection(t *testing.T) {
	server, _ := countingServer(t, "application/json", commentsPayload)
	f := newCacheFixture(t, filepath.Join(t.TempDir(), "cache.json"))
	req := NewStructuredRequest(server.URL, nil).WithFields("data", "metadata")

	result, err := f.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)

	assert.JSONEq(t,
		`{"data": [{"author": "AutoWikibot", "score": 3}, {"author": "alice", "score": 1}], "metadata": {"total": 2}}`,
		string(result.Raw()),
	)
	assert.False(t, result.Get("took").Exists())

	entry, ok := f.store.Get(server.URL + `_fields("data","metadata")`)
	require.True(t, ok)
	assert.JSONEq(t, string(result.Raw()), string(entry.Data()))
}

func TestFetchStructured_ProjectionFailures(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		fields    []string
		wantCause CacheErrorCause
	}{
		{"missing field", commentsPayload, []string{"data", "nope"}, ErrCauseMissingField},
		{"array cannot be projected", `[1, 2, 3]`, []string{"data"}, ErrCauseParseFailure},
		{"invalid json", `{"data": [`, nil, ErrCauseParseFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := countingServer(t, "application/json", tt.body)
			path := filepath.Join(t.TempDir(), "cache.json")
			f := newCacheFixture(t, path)

			req := NewStructuredRequest(server.URL, nil)
			if len(tt.fields) > 0 {
				req = req.WithFields(tt.fields...)
			}
			_, err := f.cache.FetchStructured(context.Background(), req)

			require.Error(t, err)
			var cacheErr *CacheError
			require.ErrorAs(t, err, &cacheErr)
			assert.Equal(t, tt.wantCause, cacheErr.Cause)
			assert.Equal(t, 0, f.store.Len())
			assert.Contains(t, f.sink.errors, metadata.CauseContentInvalid)
			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestFetchStructured_StalenessBoundary(t *testing.T) {
	server, hits := countingServer(t, "application/json", commentsPayload)
	f := newCacheFixture(t, filepath.Join(t.TempDir(), "cache.json"))
	req := NewStructuredRequest(server.URL, nil).WithMaxAge(10 * time.Minute)

	_, err := f.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)

	f.clock.Advance(10*time.Minute - time.Second)
	_, err = f.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))

	f.clock.Advance(2 * time.Second)
	_, err = f.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
}

func TestFetchStructured_SubSecondFetchTimeStaysFreshUntilMaxAge(t *testing.T) {
	server, hits := countingServer(t, "application/json", commentsPayload)
	f := newCacheFixture(t, filepath.Join(t.TempDir(), "cache.json"))
	f.clock.Advance(900 * time.Millisecond)
	req := NewStructuredRequest(server.URL, nil).WithMaxAge(time.Hour)

	_, err := f.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)

	f.clock.Advance(time.Hour - 500*time.Millisecond)
	_, err = f.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	assert.Equal(t, []metadata.LookupOutcome{metadata.LookupMiss, metadata.LookupHit}, f.sink.lookups)
}

func TestFetchStructured_CourtesyDelayOnlyOnNetworkRequests(t *testing.T) {
	server, hits := countingServer(t, "application/json", commentsPayload)
	f := newCacheFixture(t, filepath.Join(t.TempDir(), "cache.json"))
	req := NewStructuredRequest(server.URL, nil).WithRateLimit(true)

	_, err := f.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)
	_, err = f.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)
	assert.Equal(t, 1, f.delayer.Waits())

	_, err = f.cache.FetchStructured(context.Background(), req.WithForce(true))
	require.Nil(t, err)
	assert.Equal(t, 2, f.delayer.Waits())
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))

	_, err = f.cache.FetchStructured(context.Background(), NewStructuredRequest(server.URL, map[string]string{"q": "other"}))
	require.Nil(t, err)
	assert.Equal(t, 2, f.delayer.Waits())
}

func TestFetchStructured_CancelledDuringDelay(t *testing.T) {
	jsonFetcher := &fetcherMock{}
	f := newCacheFixture(t, filepath.Join(t.TempDir(), "cache.json"))
	f.cache.structuredFetcher = jsonFetcher
	f.delayer.SetSleeper(func(ctx context.Context, d time.Duration) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.cache.FetchStructured(ctx, NewStructuredRequest("https://api.example.com/q", nil).WithRateLimit(true))

	require.Error(t, err)
	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, ErrCauseInterrupted, cacheErr.Cause)
	jsonFetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestFetchStructured_FetchErrorPropagates(t *testing.T) {
	fetchErr := &fetcher.FetchError{
		Message:    "too many requests",
		Retryable:  true,
		Cause:      fetcher.ErrCauseRequestTooMany,
		StatusCode: http.StatusTooManyRequests,
	}
	jsonFetcher := &fetcherMock{}
	jsonFetcher.On("Fetch", mock.Anything, mock.Anything).Return(fetcher.FetchResult{}, fetchErr)
	f := newCacheFixture(t, filepath.Join(t.TempDir(), "cache.json"))
	f.cache.structuredFetcher = jsonFetcher

	_, err := f.cache.FetchStructured(context.Background(), NewStructuredRequest("https://api.example.com/q", map[string]string{"a": "b"}))

	assert.Same(t, fetchErr, err)
	assert.Equal(t, 0, f.store.Len())
	assert.Empty(t, f.sink.artifacts)
}

func TestFetchStructured_RelativeURLIsRejected(t *testing.T) {
	f := newCacheFixture(t, filepath.Join(t.TempDir(), "cache.json"))

	_, err := f.cache.FetchStructured(context.Background(), NewStructuredRequest("/relative", nil))

	require.Error(t, err)
	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, ErrCauseInvalidRequest, cacheErr.Cause)
}

func TestFetchStructured_RoundTripAcrossReload(t *testing.T) {
	server, hits := countingServer(t, "application/json", commentsPayload)
	path := filepath.Join(t.TempDir(), "cache.json")
	req := NewStructuredRequest(server.URL, map[string]string{"author": "alice"}).WithFields("metadata")

	first := newCacheFixture(t, path)
	want, err := first.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)

	second := newCacheFixture(t, path)
	got, err := second.cache.FetchStructured(context.Background(), req)
	require.Nil(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	assert.JSONEq(t, string(want.Raw()), string(got.Raw()))

	var decoded struct {
		Metadata struct {
			Total int `json:"total"`
		} `json:"metadata"`
	}
	require.NoError(t, got.Decode(&decoded))
	assert.Equal(t, 2, decoded.Metadata.Total)
}

func TestFetchStructured_ProjectionsWithSharedNamesAreStoredApart(t *testing.T) {
	server, hits := countingServer(t, "application/json", `{"a_b": 1, "a": 2, "b": 3}`)
	f := newCacheFixture(t, filepath.Join(t.TempDir(), "cache.json"))

	joined, err := f.cache.FetchStructured(context.Background(),
		NewStructuredRequest(server.URL, nil).WithFields("a_b"))
	require.Nil(t, err)
	split, err := f.cache.FetchStructured(context.Background(),
		NewStructuredRequest(server.URL, nil).WithFields("a", "b"))
	require.Nil(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
	assert.JSONEq(t, `{"a_b": 1}`, string(joined.Raw()))
	assert.JSONEq(t, `{"a": 2, "b": 3}`, string(split.Raw()))
	assert.Equal(t, 2, f.store.Len())
}
