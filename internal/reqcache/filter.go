package reqcache

import (
	"strconv"
	"strings"
)

// Filter narrows what a request keeps from its response. It is a closed set:
// MarkupSelector for markup fetches and FieldProjection for structured fetches.
// The filter takes part in the request identity, so differently scoped
// requests to the same URL never share an entry.
type Filter interface {
	identitySuffix() string
	isEmpty() bool
}

// MarkupSelector keeps only the nodes matching a CSS selector.
type MarkupSelector struct {
	Criteria string
}

func (m MarkupSelector) identitySuffix() string {
	return "_strain(" + m.Criteria + ")"
}

func (m MarkupSelector) isEmpty() bool {
	return strings.TrimSpace(m.Criteria) == ""
}

// FieldProjection keeps only the named top-level fields of a JSON object.
type FieldProjection struct {
	Names []string
}

// identitySuffix renders `_fields("a","b")`. Each name is quoted, so names
// holding separators stay distinct from each other and from parameters.
func (f FieldProjection) identitySuffix() string {
	quoted := make([]string, len(f.Names))
	for i, name := range f.Names {
		quoted[i] = strconv.Quote(name)
	}
	return "_fields(" + strings.Join(quoted, ",") + ")"
}

func (f FieldProjection) isEmpty() bool {
	return len(f.Names) == 0
}
