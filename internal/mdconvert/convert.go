package mdconvert

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/botlist-cache/internal/metadata"
	"github.com/rohmanhakim/botlist-cache/pkg/failure"
)

/*
Renders cached markup as Markdown for terminal output.

Conversion Rules
- Tables converted structurally (GFM)
- Links preserved as-is in the body
- DOM order preserved
- References resolves navigation links against the page URL
*/

type Converter interface {
	Convert(doc *goquery.Document) (ConversionResult, failure.ClassifiedError)
}

var _ Converter = (*MarkdownConverter)(nil)

type MarkdownConverter struct {
	metadataSink metadata.MetadataSink
	conv         *converter.Converter
}

func NewMarkdownConverter(metadataSink metadata.MetadataSink) *MarkdownConverter {
	return &MarkdownConverter{
		metadataSink: metadataSink,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (m *MarkdownConverter) Convert(doc *goquery.Document) (ConversionResult, failure.ClassifiedError) {
	result, err := m.convert(doc)
	if err != nil {
		m.metadataSink.RecordError(
			time.Now(),
			"mdconvert",
			"MarkdownConverter.Convert",
			mapConversionErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{},
		)
		return ConversionResult{}, err
	}
	return result, nil
}

func (m *MarkdownConverter) convert(doc *goquery.Document) (ConversionResult, *ConversionError) {
	if doc == nil || len(doc.Nodes) == 0 {
		return ConversionResult{}, &ConversionError{
			Message:   "no document to convert",
			Retryable: false,
			Cause:     ErrCauseEmptyDocument,
		}
	}

	markdown, err := m.conv.ConvertNode(doc.Nodes[0])
	if err != nil {
		return ConversionResult{}, &ConversionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}

	return NewConversionResult(markdown, extractLinkRefs(doc)), nil
}

// extractLinkRefs returns every a[href] in document order.
func extractLinkRefs(doc *goquery.Document) []LinkRef {
	var linkRefs []LinkRef
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		kind := KindNavigation
		if strings.HasPrefix(href, "#") {
			kind = KindAnchor
		}
		linkRefs = append(linkRefs, NewLinkRef(href, strings.TrimSpace(s.Text()), kind))
	})
	return linkRefs
}

// References renders the navigation links of a conversion as numbered
// Markdown reference definitions, resolved against base. Anchors,
// unparsable hrefs and repeated targets are skipped.
func References(linkRefs []LinkRef, base url.URL) []byte {
	var b strings.Builder
	seen := make(map[string]bool)
	n := 0
	for _, ref := range linkRefs {
		if ref.Kind() != KindNavigation {
			continue
		}
		target, err := url.Parse(ref.Raw())
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(target).String()
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		n++
		fmt.Fprintf(&b, "[%d]: %s", n, resolved)
		if ref.Text() != "" {
			fmt.Fprintf(&b, " %q", ref.Text())
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
