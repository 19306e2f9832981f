package reqcache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rohmanhakim/botlist-cache/internal/fetcher"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
	"github.com/rohmanhakim/botlist-cache/pkg/urlutil"
	"github.com/tidwall/gjson"
)

// FetchStructured returns the JSON value for req.
//
// Every parameter is sent, credential parameters included; only the identity
// leaves them out. With fields set the value must be an object and only
// those top-level fields are stored and returned. The courtesy delay runs
// only when the request is about to hit the network.
func (c *RequestCache) FetchStructured(ctx context.Context, req StructuredRequest) (StructuredResult, failure.ClassifiedError) {
	identity := DeriveIdentity(req.URL(), req.Params(), req.Filter())

	fetchURL, err := urlutil.WithQuery(req.URL(), req.Params())
	if err != nil {
		cacheErr := &CacheError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseInvalidRequest,
			Identity:  identity,
		}
		c.recordError("RequestCache.FetchStructured", req.URL(), cacheErr)
		return StructuredResult{}, cacheErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lookup(identity, KindStructured, req.maxAge, req.force); ok {
		return NewStructuredResult(entry.data), nil
	}

	if req.rateLimit && c.delayer != nil {
		if err := c.delayer.Wait(ctx); err != nil {
			return StructuredResult{}, &CacheError{
				Message:   fmt.Sprintf("courtesy delay: %v", err),
				Retryable: true,
				Cause:     ErrCauseInterrupted,
				Identity:  identity,
			}
		}
	}

	result, fetchErr := c.structuredFetcher.Fetch(ctx, fetcher.NewFetchParam(fetchURL))
	if fetchErr != nil {
		return StructuredResult{}, fetchErr
	}

	data, cacheErr := projectPayload(result.Body(), req.fields)
	if cacheErr != nil {
		cacheErr.Identity = identity
		c.recordError("RequestCache.FetchStructured", req.URL(), cacheErr)
		return StructuredResult{}, cacheErr
	}

	if putErr := c.store.Put(identity, NewStructuredEntry(data, c.clock.Now())); putErr != nil {
		c.recordError("RequestCache.FetchStructured", req.URL(), putErr)
		return StructuredResult{}, putErr
	}
	return NewStructuredResult(data), nil
}

// projectPayload validates body as JSON and keeps only the projected fields.
// An empty projection keeps the whole value.
func projectPayload(body []byte, projection FieldProjection) (json.RawMessage, *CacheError) {
	if !gjson.ValidBytes(body) {
		return nil, &CacheError{
			Message:   "response body is not valid JSON",
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return nil, &CacheError{
			Message:   fmt.Sprintf("compact response body: %v", err),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}
	if projection.isEmpty() {
		return json.RawMessage(compact.Bytes()), nil
	}

	root := gjson.ParseBytes(compact.Bytes())
	if !root.IsObject() {
		return nil, &CacheError{
			Message:   fmt.Sprintf("cannot project fields from a JSON %s", root.Type),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}

	fields := root.Map()
	projected := make(map[string]json.RawMessage, len(projection.Names))
	for _, name := range projection.Names {
		value, ok := fields[name]
		if !ok {
			return nil, &CacheError{
				Message:   fmt.Sprintf("field %q not present in response", name),
				Retryable: false,
				Cause:     ErrCauseMissingField,
			}
		}
		projected[name] = json.RawMessage(value.Raw)
	}

	out, err := json.Marshal(projected)
	if err != nil {
		return nil, &CacheError{
			Message:   fmt.Sprintf("encode projected fields: %v", err),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
		}
	}
	return out, nil
}
