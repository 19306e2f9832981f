package cmd

import (
	"io"
	"net/http"

	"github.com/rohmanhakim/botlist-cache/internal/config"
	"github.com/rohmanhakim/botlist-cache/internal/fetcher"
	"github.com/rohmanhakim/botlist-cache/internal/logging"
	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/internal/reqcache"
	"github.com/rohmanhakim/botlist-cache/pkg/limiter"
)

// app holds the components one command invocation shares.
type app struct {
	cfg          config.Config
	metadataSink metadata.MetadataSink
	cache        *reqcache.RequestCache
}

func newRecorder(cfg config.Config, logOutput io.Writer) *metadata.Recorder {
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Pretty: cfg.PrettyLog(),
		Output: logOutput,
	})
	return metadata.NewRecorder(logger)
}

func newApp(cfg config.Config, logOutput io.Writer) *app {
	recorder := newRecorder(cfg, logOutput)

	httpClient := &http.Client{Timeout: cfg.Timeout()}
	htmlFetcher := fetcher.NewHtmlFetcher(recorder)
	htmlFetcher.Init(httpClient, cfg.UserAgent())
	jsonFetcher := fetcher.NewJsonFetcher(recorder)
	jsonFetcher.Init(httpClient, cfg.UserAgent())

	store := reqcache.OpenStore(cfg.CacheFile(), recorder)
	cache := reqcache.NewRequestCache(
		store,
		&htmlFetcher,
		&jsonFetcher,
		limiter.NewFixedDelayer(cfg.RateLimitDelay()),
		recorder,
	)

	return &app{
		cfg:          cfg,
		metadataSink: recorder,
		cache:        cache,
	}
}

func (a *app) markupRequest(rawURL string) reqcache.MarkupRequest {
	req := reqcache.NewMarkupRequest(rawURL).WithForce(a.cfg.ForceRefresh())
	if maxAge := a.cfg.MaxAge(); maxAge != nil {
		req = req.WithMaxAge(*maxAge)
	}
	return req
}

func (a *app) structuredRequest(rawURL string, params map[string]string) reqcache.StructuredRequest {
	req := reqcache.NewStructuredRequest(rawURL, params).WithForce(a.cfg.ForceRefresh())
	if maxAge := a.cfg.MaxAge(); maxAge != nil {
		req = req.WithMaxAge(*maxAge)
	}
	return req
}
