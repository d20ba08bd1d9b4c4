package feed

import (
	"fmt"
	"strings"

	"github.com/robertmeta/feedgen/model"
	"github.com/robertmeta/feedgen/xmlw"
)

// Format selects the wire format a Document is serialized to.
type Format int

const (
	// RSS2 is RSS 2.0 (rssboard.org/rss-specification).
	RSS2 Format = iota
	// Atom1 is Atom 1.0 (RFC 4287).
	Atom1
)

// DefaultFormat is used when no format is named.
const DefaultFormat = RSS2

// ParseFormat parses a format name such as "rss" or "atom".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rss", "rss2", "rss2.0":
		return RSS2, nil
	case "atom", "atom1", "atom1.0":
		return Atom1, nil
	default:
		return 0, fmt.Errorf("unknown feed format: %s (expected rss or atom)", s)
	}
}

func (f Format) String() string {
	switch f {
	case RSS2:
		return "rss"
	case Atom1:
		return "atom"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ContentType returns the HTTP media type of the format.
func (f Format) ContentType() string {
	switch f {
	case Atom1:
		return "application/atom+xml; charset=utf-8"
	default:
		return "application/rss+xml; charset=utf-8"
	}
}

// serializer is implemented once per wire format. It is stateless: every
// call receives the document or item it works on.
type serializer interface {
	rootElement() string
	rootAttrs(d *Document) []xmlw.Attr
	// validateDocument runs before any byte is written.
	validateDocument(d *Document) error
	writeChannelMetadata(d *Document, w *xmlw.Writer) error
	itemElementName() string
	// validateItem runs before the item element is opened.
	validateItem(item *model.Item, scope string) error
	writeItem(item *model.Item, w *xmlw.Writer) error
	endChannel(w *xmlw.Writer) error
}

func newSerializer(f Format) (serializer, error) {
	switch f {
	case RSS2:
		return rss2{}, nil
	case Atom1:
		return atom1{}, nil
	default:
		return nil, fmt.Errorf("unsupported feed format: %v", f)
	}
}
