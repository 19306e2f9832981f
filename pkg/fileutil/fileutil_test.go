package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/botlist-cache/pkg/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_MultiplePathComponents(t *testing.T) {
	tmpDir := t.TempDir()
	targetDir := filepath.Join(tmpDir, "parent", "child", "grandchild")

	err := fileutil.EnsureDir(tmpDir, "parent", "child", "grandchild")
	require.NoError(t, err)

	info, statErr := os.Stat(targetDir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_DirectoryAlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	targetDir := filepath.Join(tmpDir, "existing")
	require.NoError(t, os.MkdirAll(targetDir, 0755))

	assert.Nil(t, fileutil.EnsureDir(targetDir))
}

func TestEnsureDir_PermissionError(t *testing.T) {
	if filepath.Separator == '\\' || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}

	tmpDir := t.TempDir()
	readonlyDir := filepath.Join(tmpDir, "readonly")
	require.NoError(t, os.MkdirAll(readonlyDir, 0555))

	err := fileutil.EnsureDir(readonlyDir, "subdir")

	var fileErr *fileutil.FileError
	if assert.ErrorAs(t, err, &fileErr) {
		assert.False(t, fileErr.Retryable)
		assert.Equal(t, fileutil.ErrCausePathError, fileErr.Cause)
	}
}

func TestWriteFileAtomic_CreatesParentAndWrites(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "nested", "cache.json")

	err := fileutil.WriteFileAtomic(target, []byte(`{"a":1}`), 0644)
	require.Nil(t, err)

	content, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	assert.Equal(t, `{"a":1}`, string(content))
}

func TestWriteFileAtomic_ReplacesExistingContent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(target, []byte("old content that is longer"), 0644))

	require.Nil(t, fileutil.WriteFileAtomic(target, []byte("new"), 0644))

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "cache.json")

	require.Nil(t, fileutil.WriteFileAtomic(target, []byte("{}"), 0644))
	require.Nil(t, fileutil.WriteFileAtomic(target, []byte("{}"), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cache.json", entries[0].Name())
}

func TestWriteFileAtomic_ReadOnlyDirectory(t *testing.T) {
	if filepath.Separator == '\\' || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	err := fileutil.WriteFileAtomic(filepath.Join(dir, "cache.json"), []byte("{}"), 0644)

	var fileErr *fileutil.FileError
	if assert.ErrorAs(t, err, &fileErr) {
		assert.Equal(t, fileutil.ErrCauseWriteError, fileErr.Cause)
		assert.False(t, fileErr.Retryable)
	}
}
