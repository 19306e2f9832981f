package fetcher

import (
	"context"
	"net/http"

	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
)

// JsonFetcher performs GET requests against data APIs. It accepts any
// content type; decoding the body is the caller's concern.
type JsonFetcher struct {
	httpGetter
}

func NewJsonFetcher(
	metadataSink metadata.MetadataSink,
) JsonFetcher {
	return JsonFetcher{
		httpGetter: httpGetter{
			metadataSink: metadataSink,
			httpClient:   &http.Client{},
		},
	}
}

// Init sets the HTTP client and the User-Agent sent with every request.
func (j *JsonFetcher) Init(httpClient *http.Client, userAgent string) {
	j.httpClient = httpClient
	j.userAgent = userAgent
}

func (j *JsonFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
) (FetchResult, failure.ClassifiedError) {
	result, err := j.get(ctx, fetchParam.fetchUrl, jsonRequestHeaders(), fetchParam.headers)
	if err != nil {
		j.recordFetchError("JsonFetcher.Fetch", fetchParam.fetchUrl.String(), err)
		return FetchResult{}, err
	}
	return result, nil
}

func jsonRequestHeaders() map[string]string {
	return map[string]string{
		"Accept": "application/json",
	}
}
