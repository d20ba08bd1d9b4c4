package feed

import (
	"time"

	"github.com/robertmeta/feedgen/model"
	"github.com/robertmeta/feedgen/xmlw"
)

// atom1 serializes Atom 1.0.
type atom1 struct{}

func (atom1) rootElement() string {
	return "feed"
}

func (atom1) rootAttrs(d *Document) []xmlw.Attr {
	attrs := []xmlw.Attr{{Name: "xmlns", Value: atomNS}}
	if d.channel.Language != "" {
		attrs = append(attrs, xmlw.Attr{Name: "xml:lang", Value: d.channel.Language})
	}
	return attrs
}

// feedUpdated is the channel's updated time, else the latest date among
// the items added with AddItem. Streamed items are not consulted since
// they have not been read when the feed header is written.
func (atom1) feedUpdated(d *Document) time.Time {
	if !d.channel.UpdatedAt.IsZero() {
		return d.channel.UpdatedAt
	}
	return d.latestItemDate()
}

func (a atom1) validateDocument(d *Document) error {
	if a.feedUpdated(d).IsZero() {
		return &model.ValidationError{
			Scope:  model.ScopeChannel,
			Field:  "updated_at",
			Reason: "is required for Atom when no added item has a date",
		}
	}
	for i := range d.items {
		if err := a.validateItem(&d.items[i], model.ItemScope(i)); err != nil {
			return err
		}
	}
	return nil
}

func (a atom1) writeChannelMetadata(d *Document, w *xmlw.Writer) error {
	ch := d.channel
	if err := w.QuickElement("title", ch.Title); err != nil {
		return err
	}
	err := w.SelfClosing("link",
		xmlw.Attr{Name: "rel", Value: "alternate"},
		xmlw.Attr{Name: "href", Value: ch.Link},
	)
	if err != nil {
		return err
	}
	if ch.FeedURL != "" {
		err := w.SelfClosing("link",
			xmlw.Attr{Name: "rel", Value: "self"},
			xmlw.Attr{Name: "href", Value: ch.FeedURL},
		)
		if err != nil {
			return err
		}
	}

	id := ch.GUID
	if id == "" {
		id = ch.Link
	}
	if err := w.QuickElement("id", id); err != nil {
		return err
	}
	if err := w.QuickElement("updated", RFC3339(a.feedUpdated(d))); err != nil {
		return err
	}
	if err := writePerson(w, "author", ch.AuthorName, ch.AuthorEmail, ch.AuthorLink); err != nil {
		return err
	}
	if ch.Subtitle != "" {
		if err := w.QuickElement("subtitle", ch.Subtitle); err != nil {
			return err
		}
	}
	for _, c := range ch.Categories {
		if err := w.SelfClosing("category", xmlw.Attr{Name: "term", Value: c}); err != nil {
			return err
		}
	}

	rights := ch.Copyright
	if rights == "" {
		rights = ch.Description
	}
	return w.QuickElement("rights", rights)
}

func (atom1) itemElementName() string {
	return "entry"
}

// entryUpdated falls back to the publication date.
func (atom1) entryUpdated(item *model.Item) time.Time {
	if !item.UpdatedDate.IsZero() {
		return item.UpdatedDate
	}
	return item.PubDate
}

func (atom1) entryID(item *model.Item) string {
	if item.UniqueID != "" {
		return item.UniqueID
	}
	return item.Link
}

func (a atom1) validateItem(item *model.Item, scope string) error {
	if item.Title == "" {
		return &model.ValidationError{Scope: scope, Field: "title", Reason: "is required for Atom entries"}
	}
	if a.entryUpdated(item).IsZero() {
		return &model.ValidationError{Scope: scope, Field: "updateddate", Reason: "is required for Atom entries"}
	}
	if a.entryID(item) == "" {
		return &model.ValidationError{Scope: scope, Field: "unique_id", Reason: "or link is required for Atom entries"}
	}
	return nil
}

func (a atom1) writeItem(item *model.Item, w *xmlw.Writer) error {
	if err := w.QuickElement("title", item.Title); err != nil {
		return err
	}
	if err := w.QuickElement("id", a.entryID(item)); err != nil {
		return err
	}
	if item.Link != "" {
		err := w.SelfClosing("link",
			xmlw.Attr{Name: "rel", Value: "alternate"},
			xmlw.Attr{Name: "href", Value: item.Link},
		)
		if err != nil {
			return err
		}
	}
	if !item.PubDate.IsZero() {
		if err := w.QuickElement("published", RFC3339(item.PubDate)); err != nil {
			return err
		}
	}
	if err := w.QuickElement("updated", RFC3339(a.entryUpdated(item))); err != nil {
		return err
	}

	if item.Description != "" {
		if item.DescriptionMarkup {
			err := writeRichText(w, "summary", item.Description, true, xmlw.Attr{Name: "type", Value: "html"})
			if err != nil {
				return err
			}
		} else if err := w.QuickElement("summary", item.Description); err != nil {
			return err
		}
	}

	if err := writePerson(w, "author", item.AuthorName, item.AuthorEmail, item.AuthorLink); err != nil {
		return err
	}

	if enc := item.Enclosure; enc != nil {
		err := w.SelfClosing("link",
			xmlw.Attr{Name: "rel", Value: "enclosure"},
			xmlw.Attr{Name: "href", Value: enc.URL},
			xmlw.Attr{Name: "length", Value: enclosureLength(enc)},
			xmlw.Attr{Name: "type", Value: enc.MIMEType},
		)
		if err != nil {
			return err
		}
	}

	for _, c := range item.Categories {
		if err := w.SelfClosing("category", xmlw.Attr{Name: "term", Value: c}); err != nil {
			return err
		}
	}

	if item.Copyright != "" {
		if err := w.QuickElement("rights", item.Copyright); err != nil {
			return err
		}
	}
	return nil
}

func (atom1) endChannel(w *xmlw.Writer) error {
	return nil
}

// writePerson writes an Atom person construct. Atom requires a name, so
// nothing is written without one.
func writePerson(w *xmlw.Writer, element, name, email, uri string) error {
	if name == "" {
		return nil
	}
	if err := w.StartElement(element); err != nil {
		return err
	}
	if err := w.QuickElement("name", name); err != nil {
		return err
	}
	if email != "" {
		if err := w.QuickElement("email", email); err != nil {
			return err
		}
	}
	if uri != "" {
		if err := w.QuickElement("uri", uri); err != nil {
			return err
		}
	}
	return w.EndElement(element)
}
