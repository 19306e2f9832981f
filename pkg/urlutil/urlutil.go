package urlutil

import (
	"fmt"
	"net/url"
	"sort"
)

// WithQuery parses rawURL and merges params into its query string.
// Params override query values already present on the URL. The encoded
// query is sorted by key, so equal inputs always produce the same URL.
func WithQuery(rawURL string, params map[string]string) (url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return url.URL{}, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return url.URL{}, fmt.Errorf("url %q must be absolute", rawURL)
	}

	if len(params) == 0 {
		return *parsed, nil
	}

	query := parsed.Query()
	for _, key := range SortedKeys(params) {
		query.Set(key, params[key])
	}
	// url.Values.Encode sorts by key
	parsed.RawQuery = query.Encode()

	return *parsed, nil
}

// SortedKeys returns the keys of m in lexicographic order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
