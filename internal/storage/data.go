package storage

// Persistence

type WriteResult struct {
	path        string
	contentHash string
	lines       int
}

func NewWriteResult(
	path string,
	contentHash string,
	lines int,
) WriteResult {
	return WriteResult{
		path:        path,
		contentHash: contentHash,
		lines:       lines,
	}
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}

// Lines is the number of names written.
func (w *WriteResult) Lines() int {
	return w.lines
}
