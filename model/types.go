// Package model defines the core data structures for feedgen.
package model

import (
	"time"
)

// Channel holds the feed-level metadata of a syndication document.
type Channel struct {
	ID          int64     `json:"id,omitempty"`
	Slug        string    `json:"slug,omitempty"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Language    string    `json:"language,omitempty"`
	Subtitle    string    `json:"subtitle,omitempty"`
	FeedURL     string    `json:"feed_url,omitempty"`
	AuthorName  string    `json:"author_name,omitempty"`
	AuthorEmail string    `json:"author_email,omitempty"`
	AuthorLink  string    `json:"author_link,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	Copyright   string    `json:"copyright,omitempty"`
	GUID        string    `json:"guid,omitempty"`
	TTL         int       `json:"ttl,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Validate checks that the channel has its required fields.
func (c *Channel) Validate() error {
	required := []struct {
		field, value string
	}{
		{"title", c.Title},
		{"link", c.Link},
		{"description", c.Description},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Scope: ScopeChannel, Field: r.field, Reason: "is required"}
		}
	}
	if c.TTL < 0 {
		return &ValidationError{Scope: ScopeChannel, Field: "ttl", Reason: "must not be negative"}
	}

	return checkText(ScopeChannel, []textField{
		{"title", c.Title},
		{"link", c.Link},
		{"description", c.Description},
		{"subtitle", c.Subtitle},
		{"feed_url", c.FeedURL},
		{"author_name", c.AuthorName},
		{"author_email", c.AuthorEmail},
		{"author_link", c.AuthorLink},
		{"copyright", c.Copyright},
		{"language", c.Language},
		{"guid", c.GUID},
	}, c.Categories)
}

// Enclosure associates a media object such as an audio file with an item.
type Enclosure struct {
	URL      string `json:"url"`
	Length   string `json:"length"`
	MIMEType string `json:"mime_type"`
}

// Item is one syndication entry. A zero time means the date is absent.
type Item struct {
	ID                  int64      `json:"id,omitempty"`
	ChannelID           int64      `json:"channel_id,omitempty"`
	Title               string     `json:"title,omitempty"`
	Link                string     `json:"link,omitempty"`
	Description         string     `json:"description,omitempty"`
	DescriptionMarkup   bool       `json:"description_markup,omitempty"`
	AuthorName          string     `json:"author_name,omitempty"`
	AuthorEmail         string     `json:"author_email,omitempty"`
	AuthorLink          string     `json:"author_link,omitempty"`
	Categories          []string   `json:"categories,omitempty"`
	UniqueID            string     `json:"unique_id,omitempty"`
	UniqueIDIsPermalink bool       `json:"unique_id_is_permalink,omitempty"`
	Enclosure           *Enclosure `json:"enclosure,omitempty"`
	PubDate             time.Time  `json:"pubdate,omitempty"`
	UpdatedDate         time.Time  `json:"updateddate,omitempty"`
	Comments            string     `json:"comments,omitempty"`
	Copyright           string     `json:"copyright,omitempty"`
	// TTL is the number of minutes a reader may cache the item (RSS only).
	TTL int `json:"ttl,omitempty"`
}

// Validate checks the item invariants shared by every feed format.
// scope names the item in returned errors, e.g. ItemScope(3).
func (i *Item) Validate(scope string) error {
	if i.Title == "" && i.Description == "" {
		return &ValidationError{Scope: scope, Field: "title", Reason: "title or description is required"}
	}
	if i.UniqueIDIsPermalink && i.UniqueID == "" {
		return &ValidationError{Scope: scope, Field: "unique_id", Reason: "is required when unique_id_is_permalink is set"}
	}
	if i.Enclosure != nil && i.Enclosure.URL == "" {
		return &ValidationError{Scope: scope, Field: "enclosure.url", Reason: "is required"}
	}
	if i.TTL < 0 {
		return &ValidationError{Scope: scope, Field: "ttl", Reason: "must not be negative"}
	}

	fields := []textField{
		{"title", i.Title},
		{"link", i.Link},
		{"description", i.Description},
		{"author_name", i.AuthorName},
		{"author_email", i.AuthorEmail},
		{"author_link", i.AuthorLink},
		{"unique_id", i.UniqueID},
		{"comments", i.Comments},
		{"copyright", i.Copyright},
	}
	if i.Enclosure != nil {
		fields = append(fields,
			textField{"enclosure.url", i.Enclosure.URL},
			textField{"enclosure.length", i.Enclosure.Length},
			textField{"enclosure.mime_type", i.Enclosure.MIMEType},
		)
	}
	return checkText(scope, fields, i.Categories)
}

// LatestDate returns the later of the item's updated and published dates,
// or the zero time when neither is set.
func (i *Item) LatestDate() time.Time {
	if i.UpdatedDate.After(i.PubDate) {
		return i.UpdatedDate
	}
	return i.PubDate
}
