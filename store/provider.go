package store

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robertmeta/feedgen/endpoint"
	"github.com/robertmeta/feedgen/feed"
	"github.com/robertmeta/feedgen/model"
)

// Provider serves a stored channel through an endpoint.Handler.
type Provider struct {
	store *Store
	// Slug names the channel. When empty, the {slug} path value of the
	// request is used.
	Slug string
	// Options filters and limits the items of every request.
	Options QueryOptions
	// Since drops items older than this, measured from each request.
	Since time.Duration
}

// NewProvider creates a Provider for the channel slug.
func NewProvider(s *Store, slug string, opts QueryOptions) *Provider {
	return &Provider{store: s, Slug: slug, Options: opts}
}

func (p *Provider) slug(r *http.Request) string {
	if p.Slug != "" {
		return p.Slug
	}
	return r.PathValue("slug")
}

// Channel loads the channel of the request.
func (p *Provider) Channel(r *http.Request) (model.Channel, error) {
	slug := p.slug(r)
	if slug == "" {
		return model.Channel{}, endpoint.ErrFeedNotFound
	}

	c, err := p.store.FeedChannel(r.Context(), slug)
	if errors.Is(err, ErrChannelNotFound) {
		return model.Channel{}, endpoint.ErrFeedNotFound
	}
	if err != nil {
		return model.Channel{}, err
	}
	return *c, nil
}

// Items opens a cursor over the request channel's items.
func (p *Provider) Items(r *http.Request) (feed.ItemSource, error) {
	c, err := p.store.GetChannelBySlug(r.Context(), p.slug(r))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel: %w", err)
	}
	opts := p.Options
	if p.Since > 0 {
		cutoff := p.store.now().Add(-p.Since).Unix()
		opts.SinceTime = &cutoff
	}
	return p.store.Items(r.Context(), c.ID, opts)
}
