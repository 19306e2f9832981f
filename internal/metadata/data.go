package metadata

import "time"

/*
ErrorCause is a closed, canonical classification used exclusively for
observability (logging, reporting).

Rules:
  - ErrorCause MUST NOT influence control flow.
  - Packages MAY map their local errors to ErrorCause but MUST NOT invent new meanings.
  - If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

const (
	CauseUnknown ErrorCause = iota
	// transport errors, timeouts, non-2xx responses
	CauseNetworkFailure
	// malformed markup or JSON, missing projected fields
	CauseContentInvalid
	// cache file or list file could not be written
	CauseStorageFailure
	// cache file missing or unreadable at load time
	CauseStoreLoadFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseStoreLoadFailure:
		return "store_load_failure"
	default:
		return "unknown"
	}
}

type ArtifactKind string

const (
	ArtifactCacheFile ArtifactKind = "cache_file"
	ArtifactList      ArtifactKind = "list_file"
)

// LookupOutcome describes how a cache lookup was resolved.
type LookupOutcome string

const (
	LookupHit    LookupOutcome = "hit"
	LookupMiss   LookupOutcome = "miss"
	LookupStale  LookupOutcome = "stale"
	LookupForced LookupOutcome = "forced"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL         AttributeKey = "url"
	AttrIdentity    AttributeKey = "identity"
	AttrPath        AttributeKey = "path"
	AttrField       AttributeKey = "field"
	AttrWritePath   AttributeKey = "write_path"
	AttrContentHash AttributeKey = "content_hash"
	AttrEntries     AttributeKey = "entries"
	AttrDuration    AttributeKey = "duration"
	AttrMessage     AttributeKey = "message"
)

// FetchEvent is a single outbound request as seen by the recorder.
type FetchEvent struct {
	FetchURL    string
	HTTPStatus  int
	Duration    time.Duration
	ContentType string
}
