package reqcache

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
	"github.com/rohmanhakim/botlist-cache/pkg/fileutil"
	"github.com/rohmanhakim/botlist-cache/pkg/hashutil"
)

/*
Store owns the cache file and its in-memory mapping.

Lifecycle
- Loaded once when the process starts
- Mutated in memory on every fetch that reaches the network
- Rewritten in full after every mutation (temp file + rename)

Store does no locking; RequestCache serializes access to it.
*/
type Store struct {
	path         string
	entries      map[string]Entry
	metadataSink metadata.MetadataSink
}

// LoadStore reads the cache file at path. A missing, empty or malformed file
// is reported as a *CacheError with cause ErrCauseStoreLoadFailure.
func LoadStore(path string, metadataSink metadata.MetadataSink) (*Store, failure.ClassifiedError) {
	store, _, err := loadStore(path, metadataSink)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// loadStore also reports whether the file was read but could not be decoded.
func loadStore(path string, metadataSink metadata.MetadataSink) (*Store, bool, *CacheError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, &CacheError{
			Message:   fmt.Sprintf("read %s: %v", path, err),
			Retryable: true,
			Cause:     ErrCauseStoreLoadFailure,
		}
	}

	entries, err := decodeEntries(content)
	if err != nil {
		return nil, true, &CacheError{
			Message:   fmt.Sprintf("decode %s: %v", path, err),
			Retryable: true,
			Cause:     ErrCauseStoreLoadFailure,
		}
	}

	return &Store{
		path:         path,
		entries:      entries,
		metadataSink: metadataSink,
	}, false, nil
}

// OpenStore is LoadStore with the failure collapsed into an empty store.
// The failure is recorded, never returned. A file that was read but cannot be
// decoded is moved aside first so the next save does not destroy it. A file
// that could not be read is left where it is.
func OpenStore(path string, metadataSink metadata.MetadataSink) *Store {
	store, corrupt, err := loadStore(path, metadataSink)
	if err == nil {
		return store
	}

	attrs := []metadata.Attribute{metadata.NewAttr(metadata.AttrPath, path)}
	if corrupt {
		if backup, moved := moveAside(path); moved {
			attrs = append(attrs, metadata.NewAttr(metadata.AttrWritePath, backup))
		}
	}

	metadataSink.RecordError(
		time.Now(),
		"reqcache",
		"OpenStore",
		mapCacheErrorToMetadataCause(err),
		err.Error(),
		attrs,
	)

	return NewEmptyStore(path, metadataSink)
}

func NewEmptyStore(path string, metadataSink metadata.MetadataSink) *Store {
	return &Store{
		path:         path,
		entries:      make(map[string]Entry),
		metadataSink: metadataSink,
	}
}

// moveAside renames a non-empty undecodable cache file to <path>.corrupt-<unix>.
func moveAside(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", false
	}
	backup := path + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
	if err := os.Rename(path, backup); err != nil {
		return "", false
	}
	return backup, true
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Len() int {
	return len(s.entries)
}

func (s *Store) Get(identity string) (Entry, bool) {
	entry, ok := s.entries[identity]
	return entry, ok
}

// Identities returns every stored identity in lexicographic order.
func (s *Store) Identities() []string {
	identities := make([]string, 0, len(s.entries))
	for identity := range s.entries {
		identities = append(identities, identity)
	}
	sort.Strings(identities)
	return identities
}

// Put stores entry and rewrites the cache file. When the write fails the
// previous in-memory state is restored, so memory never runs ahead of disk.
func (s *Store) Put(identity string, entry Entry) failure.ClassifiedError {
	previous, existed := s.entries[identity]
	s.entries[identity] = entry

	if err := s.Save(); err != nil {
		if existed {
			s.entries[identity] = previous
		} else {
			delete(s.entries, identity)
		}
		if cacheErr, ok := err.(*CacheError); ok {
			cacheErr.Identity = identity
		}
		return err
	}
	return nil
}

// Save rewrites the whole cache file from the in-memory mapping.
func (s *Store) Save() failure.ClassifiedError {
	start := time.Now()
	content, err := encodeEntries(s.entries)
	if err != nil {
		return &CacheError{
			Message:   fmt.Sprintf("encode entries: %v", err),
			Retryable: false,
			Cause:     ErrCauseStoreWriteFailure,
		}
	}

	if writeErr := fileutil.WriteFileAtomic(s.path, content, 0644); writeErr != nil {
		return &CacheError{
			Message:   writeErr.Error(),
			Retryable: writeErr.Severity() == failure.SeverityRecoverable,
			Cause:     ErrCauseStoreWriteFailure,
		}
	}

	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrEntries, strconv.Itoa(len(s.entries))),
		metadata.NewAttr(metadata.AttrDuration, time.Since(start).String()),
	}
	if digest, err := hashutil.ShortHash(content, hashutil.HashAlgoBLAKE3, 16); err == nil {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrContentHash, digest))
	}
	s.metadataSink.RecordArtifact(metadata.ArtifactCacheFile, s.path, attrs)
	return nil
}
