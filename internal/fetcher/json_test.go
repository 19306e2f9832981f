package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rohmanhakim/botlist-cache/internal/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonFetcher_Fetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "1", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"AutoModerator"}`))
	}))
	defer server.Close()

	sink := &mockMetadataSink{}
	f := fetcher.NewJsonFetcher(sink)
	f.Init(&http.Client{}, "test-user-agent")

	result, err := f.Fetch(context.Background(), paramFor(t, server.URL+"?q=1"))
	require.Nil(t, err)

	assert.JSONEq(t, `{"name":"AutoModerator"}`, string(result.Body()))
	assert.Equal(t, "application/json", result.ContentType())
	require.Len(t, sink.fetchEvents, 1)
}

func TestJsonFetcher_Fetch_AcceptsAnyContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(`[1,2,3]`))
	}))
	defer server.Close()

	f := fetcher.NewJsonFetcher(&mockMetadataSink{})

	result, err := f.Fetch(context.Background(), paramFor(t, server.URL))
	require.Nil(t, err)
	assert.Equal(t, "[1,2,3]", string(result.Body()))
}

func TestJsonFetcher_Fetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sink := &mockMetadataSink{}
	f := fetcher.NewJsonFetcher(sink)

	_, err := f.Fetch(context.Background(), paramFor(t, server.URL))

	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetcher.ErrCauseRequest5xx, fetchErr.Cause)
	require.Len(t, sink.errorEvents, 1)
	assert.Equal(t, "JsonFetcher.Fetch", sink.errorEvents[0].action)
}
