package reqcache

import "time"

// IsStale decides whether a stored entry must be fetched again.
//
//   - force always wins and marks the entry stale
//   - a nil maxAge means the entry never expires
//   - otherwise the entry is stale once now - fetchedAt exceeds maxAge
func IsStale(entry Entry, maxAge *time.Duration, force bool, now time.Time) bool {
	if force {
		return true
	}
	if maxAge == nil {
		return false
	}
	return now.Sub(entry.fetchedAt) > *maxAge
}
