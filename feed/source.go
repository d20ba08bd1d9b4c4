package feed

import (
	"context"
	"io"

	"github.com/robertmeta/feedgen/model"
)

// ItemSource is a one-pass, pull-based producer of items. Next returns io.EOF
// once the source is exhausted. Next may block; the Document calls it from
// the goroutine running Write and never concurrently.
type ItemSource interface {
	Next(ctx context.Context) (model.Item, error)
}

// ItemSourceFunc adapts a function to an ItemSource.
type ItemSourceFunc func(ctx context.Context) (model.Item, error)

// Next calls f(ctx).
func (f ItemSourceFunc) Next(ctx context.Context) (model.Item, error) {
	return f(ctx)
}

// SliceSource yields the given items once, in order.
type SliceSource struct {
	items []model.Item
	pos   int
}

// Items creates a SliceSource over items.
func Items(items ...model.Item) *SliceSource {
	return &SliceSource{items: items}
}

// Next returns the next item or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	if s.pos >= len(s.items) {
		return model.Item{}, io.EOF
	}
	item := s.items[s.pos]
	s.pos++
	return item, nil
}
