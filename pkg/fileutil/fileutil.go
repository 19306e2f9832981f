package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"

	"github.com/rohmanhakim/botlist-cache/pkg/failure"
)

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)
	fullPath := filepath.Join(targetPath...)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return &FileError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      fullPath,
		}
	}
	return nil
}

// WriteFileAtomic writes data next to path in a temporary file and renames it
// over path, so readers observe either the old or the new content.
// The parent directory is created when missing.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) failure.ClassifiedError {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return writeError(path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return writeError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return writeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return writeError(path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return writeError(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return writeError(path, err)
	}
	return nil
}

func writeError(path string, err error) *FileError {
	// disk full may clear up, everything else will not
	return &FileError{
		Message:   err.Error(),
		Retryable: errors.Is(err, syscall.ENOSPC),
		Cause:     ErrCauseWriteError,
		Path:      path,
	}
}
