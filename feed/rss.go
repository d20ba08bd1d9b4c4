package feed

import (
	"strconv"

	"github.com/robertmeta/feedgen/model"
	"github.com/robertmeta/feedgen/xmlw"
)

const (
	atomNS = "http://www.w3.org/2005/Atom"
	dcNS   = "http://purl.org/dc/elements/1.1/"
)

// rss2 serializes RSS 2.0.
type rss2 struct{}

func (rss2) rootElement() string {
	return "rss"
}

func (rss2) rootAttrs(d *Document) []xmlw.Attr {
	return []xmlw.Attr{
		{Name: "version", Value: "2.0"},
		{Name: "xmlns:atom", Value: atomNS},
	}
}

func (rss2) validateDocument(d *Document) error {
	return nil
}

func (rss2) writeChannelMetadata(d *Document, w *xmlw.Writer) error {
	ch := d.channel
	if err := w.StartElement("channel"); err != nil {
		return err
	}
	if err := w.QuickElement("title", ch.Title); err != nil {
		return err
	}
	if err := w.QuickElement("link", ch.Link); err != nil {
		return err
	}
	if err := w.QuickElement("description", ch.Description); err != nil {
		return err
	}
	if ch.Language != "" {
		if err := w.QuickElement("language", ch.Language); err != nil {
			return err
		}
	}
	if ch.FeedURL != "" {
		err := w.SelfClosing("atom:link",
			xmlw.Attr{Name: "rel", Value: "self"},
			xmlw.Attr{Name: "href", Value: ch.FeedURL},
		)
		if err != nil {
			return err
		}
	}
	for _, c := range ch.Categories {
		if err := w.QuickElement("category", c); err != nil {
			return err
		}
	}
	if ch.Copyright != "" {
		if err := w.QuickElement("copyright", ch.Copyright); err != nil {
			return err
		}
	}

	buildDate := ch.UpdatedAt
	if buildDate.IsZero() {
		buildDate = d.LatestPostDate()
	}
	if err := w.QuickElement("lastBuildDate", RFC2822(buildDate)); err != nil {
		return err
	}

	if ch.TTL > 0 {
		if err := w.QuickElement("ttl", strconv.Itoa(ch.TTL)); err != nil {
			return err
		}
	}
	return nil
}

func (rss2) itemElementName() string {
	return "item"
}

func (rss2) validateItem(item *model.Item, scope string) error {
	return nil
}

func (rss2) writeItem(item *model.Item, w *xmlw.Writer) error {
	if item.Title != "" {
		if err := w.QuickElement("title", item.Title); err != nil {
			return err
		}
	}
	if item.Link != "" {
		if err := w.QuickElement("link", item.Link); err != nil {
			return err
		}
	}
	if item.Description != "" {
		if err := writeRichText(w, "description", item.Description, item.DescriptionMarkup); err != nil {
			return err
		}
	}

	// The link doubles as a non-permalink guid when no unique id is given.
	switch {
	case item.UniqueID != "":
		err := w.QuickElement("guid", item.UniqueID,
			xmlw.Attr{Name: "isPermaLink", Value: strconv.FormatBool(item.UniqueIDIsPermalink)})
		if err != nil {
			return err
		}
	case item.Link != "":
		err := w.QuickElement("guid", item.Link, xmlw.Attr{Name: "isPermaLink", Value: "false"})
		if err != nil {
			return err
		}
	}

	if !item.PubDate.IsZero() {
		if err := w.QuickElement("pubDate", RFC2822(item.PubDate)); err != nil {
			return err
		}
	}

	switch {
	case item.AuthorEmail != "" && item.AuthorName != "":
		if err := w.QuickElement("author", item.AuthorEmail+" ("+item.AuthorName+")"); err != nil {
			return err
		}
	case item.AuthorEmail != "":
		if err := w.QuickElement("author", item.AuthorEmail); err != nil {
			return err
		}
	case item.AuthorName != "":
		// RSS author must be an email address; a bare name goes to dc:creator.
		if err := w.QuickElement("dc:creator", item.AuthorName, xmlw.Attr{Name: "xmlns:dc", Value: dcNS}); err != nil {
			return err
		}
	}

	for _, c := range item.Categories {
		if err := w.QuickElement("category", c); err != nil {
			return err
		}
	}

	if enc := item.Enclosure; enc != nil {
		err := w.SelfClosing("enclosure",
			xmlw.Attr{Name: "url", Value: enc.URL},
			xmlw.Attr{Name: "length", Value: enclosureLength(enc)},
			xmlw.Attr{Name: "type", Value: enc.MIMEType},
		)
		if err != nil {
			return err
		}
	}

	if item.Comments != "" {
		if err := w.QuickElement("comments", item.Comments); err != nil {
			return err
		}
	}
	if item.TTL > 0 {
		if err := w.QuickElement("ttl", strconv.Itoa(item.TTL)); err != nil {
			return err
		}
	}
	return nil
}

func (rss2) endChannel(w *xmlw.Writer) error {
	return w.EndElement("channel")
}

// writeRichText writes text escaped, or as CDATA when the caller has marked
// it as markup. Markup the output charset cannot carry verbatim is escaped
// instead, since character references are not expanded inside CDATA.
func writeRichText(w *xmlw.Writer, name, text string, markup bool, attrs ...xmlw.Attr) error {
	if !markup || !w.CanEncode(text) {
		return w.QuickElement(name, text, attrs...)
	}
	if err := w.StartElement(name, attrs...); err != nil {
		return err
	}
	if err := w.CData(text); err != nil {
		return err
	}
	return w.EndElement(name)
}

// enclosureLength returns the enclosure size in bytes, "0" when unknown.
func enclosureLength(enc *model.Enclosure) string {
	if enc.Length == "" {
		return "0"
	}
	return enc.Length
}
