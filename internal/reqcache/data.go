package reqcache

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

// Representation

type EntryKind string

const (
	KindMarkup     EntryKind = "markup"
	KindStructured EntryKind = "structured"
)

// Entry is one stored response. Markup entries carry serialized nodes,
// structured entries carry a JSON value.
type Entry struct {
	kind      EntryKind
	markup    string
	data      json.RawMessage
	fetchedAt time.Time
}

// NewMarkupEntry keeps fetchedAt at full precision in memory. The cache file
// holds whole seconds, so entries read back from disk are truncated.
func NewMarkupEntry(markup string, fetchedAt time.Time) Entry {
	return Entry{
		kind:      KindMarkup,
		markup:    markup,
		fetchedAt: fetchedAt.UTC(),
	}
}

func NewStructuredEntry(data json.RawMessage, fetchedAt time.Time) Entry {
	return Entry{
		kind:      KindStructured,
		data:      data,
		fetchedAt: fetchedAt.UTC(),
	}
}

func (e *Entry) Kind() EntryKind {
	return e.kind
}

func (e *Entry) Markup() string {
	return e.markup
}

func (e *Entry) Data() json.RawMessage {
	return e.data
}

func (e *Entry) FetchedAt() time.Time {
	return e.fetchedAt
}

// Requests

type MarkupRequest struct {
	url      string
	headers  map[string]string
	maxAge   *time.Duration
	force    bool
	selector MarkupSelector
}

func NewMarkupRequest(rawURL string) MarkupRequest {
	return MarkupRequest{
		url: rawURL,
	}
}

func (r MarkupRequest) WithHeaders(headers map[string]string) MarkupRequest {
	r.headers = headers
	return r
}

func (r MarkupRequest) WithMaxAge(maxAge time.Duration) MarkupRequest {
	r.maxAge = &maxAge
	return r
}

func (r MarkupRequest) WithForce(force bool) MarkupRequest {
	r.force = force
	return r
}

// WithSelector restricts the stored markup to nodes matching a CSS selector.
func (r MarkupRequest) WithSelector(criteria string) MarkupRequest {
	r.selector = MarkupSelector{Criteria: criteria}
	return r
}

func (r MarkupRequest) URL() string {
	return r.url
}

func (r MarkupRequest) Filter() Filter {
	if r.selector.isEmpty() {
		return nil
	}
	return r.selector
}

type StructuredRequest struct {
	url       string
	params    map[string]string
	maxAge    *time.Duration
	force     bool
	fields    FieldProjection
	rateLimit bool
}

func NewStructuredRequest(rawURL string, params map[string]string) StructuredRequest {
	return StructuredRequest{
		url:    rawURL,
		params: params,
	}
}

func (r StructuredRequest) WithMaxAge(maxAge time.Duration) StructuredRequest {
	r.maxAge = &maxAge
	return r
}

func (r StructuredRequest) WithForce(force bool) StructuredRequest {
	r.force = force
	return r
}

// WithFields keeps only the named top-level fields of the response.
func (r StructuredRequest) WithFields(names ...string) StructuredRequest {
	r.fields = FieldProjection{Names: names}
	return r
}

// WithRateLimit applies the courtesy delay before a request that misses the cache.
func (r StructuredRequest) WithRateLimit(rateLimit bool) StructuredRequest {
	r.rateLimit = rateLimit
	return r
}

func (r StructuredRequest) URL() string {
	return r.url
}

func (r StructuredRequest) Params() map[string]string {
	return r.params
}

func (r StructuredRequest) Filter() Filter {
	if r.fields.isEmpty() {
		return nil
	}
	return r.fields
}

// StructuredResult is the JSON value returned by a structured fetch.
type StructuredResult struct {
	raw json.RawMessage
}

func NewStructuredResult(raw json.RawMessage) StructuredResult {
	return StructuredResult{raw: raw}
}

func (s StructuredResult) Raw() json.RawMessage {
	return s.raw
}

// Get queries the value with a gjson path, e.g. "data.children.#.data.author".
func (s StructuredResult) Get(path string) gjson.Result {
	return gjson.GetBytes(s.raw, path)
}

func (s StructuredResult) Decode(v any) error {
	return json.Unmarshal(s.raw, v)
}
