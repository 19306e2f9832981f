package reqcache

import (
	"fmt"

	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
)

type CacheErrorCause string

const (
	ErrCauseInvalidRequest    CacheErrorCause = "invalid request"
	ErrCauseParseFailure      CacheErrorCause = "parse failure"
	ErrCauseMissingField      CacheErrorCause = "missing field"
	ErrCauseStoreLoadFailure  CacheErrorCause = "store load failure"
	ErrCauseStoreWriteFailure CacheErrorCause = "store write failure"
	ErrCauseInterrupted       CacheErrorCause = "interrupted"
)

type CacheError struct {
	Message   string
	Retryable bool
	Cause     CacheErrorCause
	Identity  string
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s: %s", e.Cause, e.Message)
}

func (e *CacheError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapCacheErrorToMetadataCause maps cache-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapCacheErrorToMetadataCause(err *CacheError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseParseFailure, ErrCauseMissingField:
		return metadata.CauseContentInvalid
	case ErrCauseStoreLoadFailure:
		return metadata.CauseStoreLoadFailure
	case ErrCauseStoreWriteFailure:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
