package botlist

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/internal/reqcache"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
)

/*
Responsibilities
- Read account names out of a listing page
- Go through the request cache for remote pages
- Read saved pages straight from disk

Extraction Rules
- Only the first <table> of the page is considered
- Every <a> inside it contributes its text, in document order
- Blank link texts are skipped
*/

// MarkupSource is the part of reqcache.RequestCache the scraper needs.
type MarkupSource interface {
	FetchMarkup(ctx context.Context, req reqcache.MarkupRequest) (*goquery.Document, failure.ClassifiedError)
}

type Scraper struct {
	source       MarkupSource
	metadataSink metadata.MetadataSink
}

func NewScraper(source MarkupSource, metadataSink metadata.MetadataSink) Scraper {
	return Scraper{
		source:       source,
		metadataSink: metadataSink,
	}
}

// FetchRemote fetches the page at req through the cache and extracts the names.
func (s *Scraper) FetchRemote(ctx context.Context, req reqcache.MarkupRequest) ([]string, failure.ClassifiedError) {
	doc, err := s.source.FetchMarkup(ctx, req)
	if err != nil {
		return nil, err
	}

	names, extractErr := ExtractNames(doc)
	if extractErr != nil {
		extractErr.Source = req.URL()
		s.recordError("Scraper.FetchRemote", extractErr)
		return nil, extractErr
	}
	return names, nil
}

// ParseLocal reads a saved HTML page and extracts the names.
func (s *Scraper) ParseLocal(path string) ([]string, failure.ClassifiedError) {
	file, err := os.Open(path)
	if err != nil {
		readErr := &BotListError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseSourceUnread,
			Source:    path,
		}
		s.recordError("Scraper.ParseLocal", readErr)
		return nil, readErr
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		parseErr := &BotListError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseParseFailure,
			Source:    path,
		}
		s.recordError("Scraper.ParseLocal", parseErr)
		return nil, parseErr
	}

	names, extractErr := ExtractNames(doc)
	if extractErr != nil {
		extractErr.Source = path
		s.recordError("Scraper.ParseLocal", extractErr)
		return nil, extractErr
	}
	return names, nil
}

// ExtractNames returns the link texts of the first table in doc.
func ExtractNames(doc *goquery.Document) ([]string, *BotListError) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, &BotListError{
			Message:   "page has no <table>",
			Retryable: false,
			Cause:     ErrCauseTableNotFound,
		}
	}

	names := []string{}
	table.Find("a").Each(func(_ int, link *goquery.Selection) {
		name := strings.TrimSpace(link.Text())
		if name != "" {
			names = append(names, name)
		}
	})
	return names, nil
}

func (s *Scraper) recordError(action string, err *BotListError) {
	s.metadataSink.RecordError(
		time.Now(),
		"botlist",
		action,
		mapBotListErrorToMetadataCause(err),
		fmt.Sprintf("%s (source %s)", err.Error(), err.Source),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrPath, err.Source),
		},
	)
}
