package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
)

/*
Responsibilities

- Perform HTTP GET requests for markup pages
- Apply browser-like and caller headers
- Classify responses

Fetch Semantics

- Only successful HTML responses are returned
- Non-HTML content is rejected
- Failures are never retried here

The fetcher never parses content; it only returns bytes and metadata.
*/

type HtmlFetcher struct {
	httpGetter
}

func NewHtmlFetcher(
	metadataSink metadata.MetadataSink,
) HtmlFetcher {
	return HtmlFetcher{
		httpGetter: httpGetter{
			metadataSink: metadataSink,
			httpClient:   &http.Client{},
		},
	}
}

// Init sets the HTTP client and the User-Agent sent with every request.
func (h *HtmlFetcher) Init(httpClient *http.Client, userAgent string) {
	h.httpClient = httpClient
	h.userAgent = userAgent
}

func (h *HtmlFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
) (FetchResult, failure.ClassifiedError) {
	result, err := h.get(ctx, fetchParam.fetchUrl, htmlRequestHeaders(), fetchParam.headers)
	if err == nil && !isHTMLContent(result.ContentType()) {
		err = &FetchError{
			Message:    fmt.Sprintf("non-HTML content type: %s", result.ContentType()),
			Retryable:  false,
			Cause:      ErrCauseContentTypeInvalid,
			StatusCode: result.Code(),
		}
	}

	if err != nil {
		h.recordFetchError("HtmlFetcher.Fetch", fetchParam.fetchUrl.String(), err)
		return FetchResult{}, err
	}
	return result, nil
}

func (g *httpGetter) recordFetchError(callerMethod string, fetchUrl string, err error) {
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		g.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(fetchError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fetchUrl),
			},
		)
	}
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

func htmlRequestHeaders() map[string]string {
	return map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
}
