package reqcache

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rohmanhakim/botlist-cache/internal/fetcher"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
	"github.com/rohmanhakim/botlist-cache/pkg/urlutil"
	"golang.org/x/net/html"
)

// FetchMarkup returns the document for req, parsed from the stored markup.
//
// With a selector only the outer HTML of the matching nodes is stored, one
// node per line; without one the whole rendered document is stored. Both a
// hit and a miss return a document parsed from the stored text, so callers
// see the same tree either way.
func (c *RequestCache) FetchMarkup(ctx context.Context, req MarkupRequest) (*goquery.Document, failure.ClassifiedError) {
	identity := DeriveIdentity(req.URL(), nil, req.Filter())

	var matcher cascadia.Selector
	if !req.selector.isEmpty() {
		compiled, err := cascadia.Compile(req.selector.Criteria)
		if err != nil {
			cacheErr := &CacheError{
				Message:   fmt.Sprintf("invalid selector %q: %v", req.selector.Criteria, err),
				Retryable: false,
				Cause:     ErrCauseInvalidRequest,
				Identity:  identity,
			}
			c.recordError("RequestCache.FetchMarkup", req.URL(), cacheErr)
			return nil, cacheErr
		}
		matcher = compiled
	}

	fetchURL, err := urlutil.WithQuery(req.URL(), nil)
	if err != nil {
		cacheErr := &CacheError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseInvalidRequest,
			Identity:  identity,
		}
		c.recordError("RequestCache.FetchMarkup", req.URL(), cacheErr)
		return nil, cacheErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lookup(identity, KindMarkup, req.maxAge, req.force); ok {
		return c.parseStored(identity, req.URL(), entry.markup)
	}

	result, fetchErr := c.markupFetcher.Fetch(ctx, fetcher.NewFetchParam(fetchURL).WithHeaders(req.headers))
	if fetchErr != nil {
		return nil, fetchErr
	}

	markup, err := extractMarkup(result.Body(), matcher)
	if err != nil {
		cacheErr := &CacheError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
			Identity:  identity,
		}
		c.recordError("RequestCache.FetchMarkup", req.URL(), cacheErr)
		return nil, cacheErr
	}

	if putErr := c.store.Put(identity, NewMarkupEntry(markup, c.clock.Now())); putErr != nil {
		c.recordError("RequestCache.FetchMarkup", req.URL(), putErr)
		return nil, putErr
	}
	return c.parseStored(identity, req.URL(), markup)
}

func (c *RequestCache) parseStored(identity string, rawURL string, markup string) (*goquery.Document, failure.ClassifiedError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		cacheErr := &CacheError{
			Message:   fmt.Sprintf("parse stored markup: %v", err),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
			Identity:  identity,
		}
		c.recordError("RequestCache.FetchMarkup", rawURL, cacheErr)
		return nil, cacheErr
	}
	return doc, nil
}

// extractMarkup parses body and serializes what the request keeps of it.
// A nil matcher keeps the whole document.
func extractMarkup(body []byte, matcher cascadia.Selector) (string, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}

	if matcher == nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, root); err != nil {
			return "", fmt.Errorf("render markup: %w", err)
		}
		return buf.String(), nil
	}

	selection := goquery.NewDocumentFromNode(root).FindMatcher(matcher)
	parts := make([]string, 0, selection.Length())
	var renderErr error
	selection.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		outer, err := goquery.OuterHtml(s)
		if err != nil {
			renderErr = fmt.Errorf("render selected node: %w", err)
			return false
		}
		parts = append(parts, outer)
		return true
	})
	if renderErr != nil {
		return "", renderErr
	}
	return strings.Join(parts, "\n"), nil
}
