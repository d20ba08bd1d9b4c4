// Package feed builds RSS 2.0 and Atom 1.0 documents and streams them as
// XML. A Document holds channel metadata and items; Write walks them once
// and emits each element as it goes, so output is never assembled in
// memory.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/robertmeta/feedgen/model"
	"github.com/robertmeta/feedgen/xmlw"
)

// Document is a syndication feed bound to one wire format.
//
// Items added with AddItem are kept and written by every call to Write.
// Items from a source bound with WithItems are written as they are pulled
// and then dropped; once the source is exhausted a later Write emits none
// of them. A Document must not be written by two goroutines at once.
type Document struct {
	channel    model.Channel
	format     Format
	serializer serializer
	items      []model.Item
	source     ItemSource
	now        func() time.Time
}

// Option configures a Document.
type Option func(*Document)

// WithClock sets the clock used for generation-time defaults.
func WithClock(now func() time.Time) Option {
	return func(d *Document) {
		d.now = now
	}
}

// WithItems binds a one-pass item source that Write drains after the items
// added with AddItem. The Document does not close the source.
func WithItems(src ItemSource) Option {
	return func(d *Document) {
		d.source = src
	}
}

// New validates channel and creates a Document serialized as format.
func New(channel model.Channel, format Format, opts ...Option) (*Document, error) {
	s, err := newSerializer(format)
	if err != nil {
		return nil, err
	}
	if err := channel.Validate(); err != nil {
		return nil, err
	}

	d := &Document{
		format:     format,
		serializer: s,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	channel.Link = IRIToURI(channel.Link)
	channel.FeedURL = IRIToURI(channel.FeedURL)
	channel.AuthorLink = IRIToURI(channel.AuthorLink)
	channel.Categories = append([]string(nil), channel.Categories...)
	if channel.CreatedAt.IsZero() {
		channel.CreatedAt = d.now()
	}
	d.channel = channel

	return d, nil
}

// AddItem validates item and appends it. Items are written in the order
// they were added.
func (d *Document) AddItem(item model.Item) error {
	prepared, err := prepareItem(item, model.ItemScope(len(d.items)))
	if err != nil {
		return err
	}
	d.items = append(d.items, prepared)
	return nil
}

// Channel returns the document's channel metadata.
func (d *Document) Channel() model.Channel {
	return d.channel
}

// Format returns the wire format chosen at construction.
func (d *Document) Format() Format {
	return d.format
}

// ContentType returns the HTTP media type of the document.
func (d *Document) ContentType() string {
	return d.format.ContentType()
}

// NumItems returns the number of items added with AddItem.
func (d *Document) NumItems() int {
	return len(d.items)
}

// LatestPostDate returns the latest pubdate or updated date of the items
// added with AddItem, or the current time if none has a date.
func (d *Document) LatestPostDate() time.Time {
	if latest := d.latestItemDate(); !latest.IsZero() {
		return latest
	}
	return d.now().UTC()
}

func (d *Document) latestItemDate() time.Time {
	var latest time.Time
	for i := range d.items {
		if date := d.items[i].LatestDate(); date.After(latest) {
			latest = date
		}
	}
	return latest
}

// Write serializes the document to w in the named character encoding
// (utf-8 when empty).
func (d *Document) Write(w io.Writer, encoding string) error {
	return d.WriteContext(context.Background(), w, encoding)
}

// WriteContext is Write with a context that is passed to the item source
// and checked between items.
//
// Output is flushed after every item. On error the document written so far
// is left incomplete in w; callers that need all-or-nothing output must
// buffer it themselves.
func (d *Document) WriteContext(ctx context.Context, w io.Writer, encoding string) error {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if err := d.serializer.validateDocument(d); err != nil {
		return err
	}

	cs, err := encodeTo(w, encoding)
	if err != nil {
		return err
	}

	xw := xmlw.New(cs.w)
	if cs.encodable != nil {
		xw.SetEncodable(cs.encodable)
	}
	err = d.write(ctx, xw, encoding)
	if cerr := cs.close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to flush encoded output: %w", cerr)
	}
	return err
}

func (d *Document) write(ctx context.Context, xw *xmlw.Writer, encoding string) error {
	s := d.serializer

	if err := xw.StartDocument(encoding); err != nil {
		return err
	}
	if err := xw.StartElement(s.rootElement(), s.rootAttrs(d)...); err != nil {
		return err
	}
	if err := s.writeChannelMetadata(d, xw); err != nil {
		return err
	}

	n := 0
	for i := range d.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.writeItem(xw, &d.items[i], model.ItemScope(n)); err != nil {
			return err
		}
		n++
	}

	if d.source != nil {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := d.source.Next(ctx)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", model.ItemScope(n), err)
			}

			scope := model.ItemScope(n)
			prepared, err := prepareItem(item, scope)
			if err != nil {
				return err
			}
			if err := d.writeItem(xw, &prepared, scope); err != nil {
				return err
			}
			n++
		}
	}

	if err := s.endChannel(xw); err != nil {
		return err
	}
	if err := xw.EndElement(s.rootElement()); err != nil {
		return err
	}
	return xw.Close()
}

func (d *Document) writeItem(xw *xmlw.Writer, item *model.Item, scope string) error {
	s := d.serializer
	if err := s.validateItem(item, scope); err != nil {
		return err
	}

	name := s.itemElementName()
	if err := xw.StartElement(name); err != nil {
		return err
	}
	if err := s.writeItem(item, xw); err != nil {
		return err
	}
	if err := xw.EndElement(name); err != nil {
		return err
	}
	return xw.Flush()
}

// prepareItem validates item and normalizes its URIs. The returned copy
// shares nothing mutable with the caller's item.
func prepareItem(item model.Item, scope string) (model.Item, error) {
	if err := item.Validate(scope); err != nil {
		return model.Item{}, err
	}

	item.Link = IRIToURI(item.Link)
	item.AuthorLink = IRIToURI(item.AuthorLink)
	item.Comments = IRIToURI(item.Comments)
	item.Categories = append([]string(nil), item.Categories...)
	if item.Enclosure != nil {
		enc := *item.Enclosure
		enc.URL = IRIToURI(enc.URL)
		item.Enclosure = &enc
	}
	return item, nil
}
