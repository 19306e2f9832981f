package reqcache

import (
	"strings"

	"github.com/rohmanhakim/botlist-cache/pkg/urlutil"
)

// DeriveIdentity builds the key a request is stored under.
//
// Layout: the URL, then `_name_value` for every parameter in name order with
// the value lowercased, then the filter suffix. Parameters that look like
// credentials are left out so secrets never reach the cache file.
// Empty filters contribute nothing.
func DeriveIdentity(rawURL string, params map[string]string, filter Filter) string {
	var b strings.Builder
	b.WriteString(rawURL)

	for _, name := range urlutil.SortedKeys(params) {
		if isCredentialParam(name) {
			continue
		}
		b.WriteString("_")
		b.WriteString(name)
		b.WriteString("_")
		b.WriteString(strings.ToLower(params[name]))
	}

	if filter != nil && !filter.isEmpty() {
		b.WriteString(filter.identitySuffix())
	}
	return b.String()
}

// isCredentialParam matches any name containing both "api" and "key",
// regardless of case or position (api_key, apiKey, X-API-KEY, key_for_api).
func isCredentialParam(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "api") && strings.Contains(lower, "key")
}
