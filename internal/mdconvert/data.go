package mdconvert

// Representation

type ConversionResult struct {
	markdownContent []byte
	linkRefs        []LinkRef
}

func NewConversionResult(
	markdownContent []byte,
	linkRefs []LinkRef,
) ConversionResult {
	return ConversionResult{
		markdownContent: markdownContent,
		linkRefs:        linkRefs,
	}
}

func (c *ConversionResult) MarkdownContent() []byte {
	return c.markdownContent
}

func (c *ConversionResult) LinkRefs() []LinkRef {
	return c.linkRefs
}

type LinkKind string

const (
	KindNavigation LinkKind = "navigation"
	KindAnchor     LinkKind = "anchor"
)

// LinkRef is an anchor found in the converted markup, with its visible text.
type LinkRef struct {
	raw  string
	text string
	kind LinkKind
}

func NewLinkRef(
	raw string,
	text string,
	kind LinkKind,
) LinkRef {
	return LinkRef{
		raw:  raw,
		text: text,
		kind: kind,
	}
}

func (l *LinkRef) Raw() string {
	return l.raw
}

func (l *LinkRef) Text() string {
	return l.text
}

func (l *LinkRef) Kind() LinkKind {
	return l.kind
}
