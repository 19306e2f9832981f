package storage

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
	"github.com/rohmanhakim/botlist-cache/pkg/fileutil"
	"github.com/rohmanhakim/botlist-cache/pkg/hashutil"
)

/*
Responsibilities
- Persist name lists, one name per line
- Fingerprint what was written

Output Characteristics
- Every line ends with a newline, an empty list is an empty file
- Writes replace the previous file atomically
- Reruns over the same input produce identical files
*/

type Sink interface {
	WriteList(
		outputDir string,
		fileName string,
		names []string,
		hashAlgo hashutil.HashAlgo,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
	}
}

func (s *LocalSink) WriteList(
	outputDir string,
	fileName string,
	names []string,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, fileName, names, hashAlgo)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.WriteList",
			mapStorageErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrWritePath, err.Path),
			},
		)
		return WriteResult{}, err
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactList,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrContentHash, writeResult.ContentHash()),
			metadata.NewAttr(metadata.AttrEntries, strconv.Itoa(writeResult.Lines())),
		},
	)
	return writeResult, nil
}

func write(
	outputDir string,
	fileName string,
	names []string,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, *StorageError) {
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString("\n")
	}
	content := []byte(b.String())

	contentHash, err := hashutil.HashBytes(content, hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}

	fullPath := filepath.Join(outputDir, fileName)
	if writeErr := fileutil.WriteFileAtomic(fullPath, content, 0644); writeErr != nil {
		cause := ErrCauseWriteFailure
		var fileErr *fileutil.FileError
		if errors.As(writeErr, &fileErr) {
			switch {
			case fileErr.Cause == fileutil.ErrCausePathError:
				cause = ErrCausePathError
			case fileErr.Retryable:
				cause = ErrCauseDiskFull
			}
		}
		return WriteResult{}, &StorageError{
			Message:   writeErr.Error(),
			Retryable: writeErr.Severity() == failure.SeverityRecoverable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	return NewWriteResult(fullPath, contentHash, len(names)), nil
}
