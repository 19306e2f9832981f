package botlist

import (
	"fmt"

	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
)

type BotListErrorCause string

const (
	ErrCauseTableNotFound BotListErrorCause = "table not found"
	ErrCauseSourceUnread  BotListErrorCause = "source unreadable"
	ErrCauseParseFailure  BotListErrorCause = "parse failure"
)

type BotListError struct {
	Message   string
	Retryable bool
	Cause     BotListErrorCause
	Source    string
}

func (e *BotListError) Error() string {
	return fmt.Sprintf("botlist error: %s: %s", e.Cause, e.Message)
}

func (e *BotListError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapBotListErrorToMetadataCause(err *BotListError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTableNotFound, ErrCauseParseFailure:
		return metadata.CauseContentInvalid
	case ErrCauseSourceUnread:
		return metadata.CauseStoreLoadFailure
	default:
		return metadata.CauseUnknown
	}
}
