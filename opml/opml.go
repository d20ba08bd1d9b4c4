// Package opml exports the channels feedgen publishes as an OPML directory
// and imports channel definitions from one.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/robertmeta/feedgen/model"
)

// OPML represents the root OPML structure.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head contains metadata about the OPML document.
type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// Body contains the outline elements (channels).
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline represents a channel or a category in OPML.
type Outline struct {
	Text        string    `xml:"text,attr,omitempty"`
	Title       string    `xml:"title,attr,omitempty"`
	Type        string    `xml:"type,attr,omitempty"`
	XMLUrl      string    `xml:"xmlUrl,attr,omitempty"`
	HTMLUrl     string    `xml:"htmlUrl,attr,omitempty"`
	Description string    `xml:"description,attr,omitempty"`
	Language    string    `xml:"language,attr,omitempty"`
	Category    string    `xml:"category,attr,omitempty"`
	Slug        string    `xml:"slug,attr,omitempty"`
	Outlines    []Outline `xml:"outline,omitempty"`
}

// Parse reads an OPML file and extracts channel definitions. Channels
// without a slug attribute get one derived from their title.
func Parse(r io.Reader) ([]*model.Channel, error) {
	var opml OPML
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&opml); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	return extractChannels(opml.Body.Outlines, ""), nil
}

// extractChannels recursively extracts channels from outlines.
// parentCategory is used for nested outlines that don't specify their own category.
func extractChannels(outlines []Outline, parentCategory string) []*model.Channel {
	var channels []*model.Channel

	for _, outline := range outlines {
		// If this outline has an xmlUrl, it's a channel
		if outline.XMLUrl != "" {
			channels = append(channels, outlineChannel(outline, parentCategory))
		}

		if len(outline.Outlines) > 0 {
			// Use outline text as category for children if they don't have one
			categoryForChildren := outline.Text
			if categoryForChildren == "" {
				categoryForChildren = parentCategory
			}
			channels = append(channels, extractChannels(outline.Outlines, categoryForChildren)...)
		}
	}

	return channels
}

func outlineChannel(outline Outline, parentCategory string) *model.Channel {
	c := &model.Channel{
		Slug:        outline.Slug,
		Title:       outline.Title,
		Link:        outline.HTMLUrl,
		Description: outline.Description,
		Language:    outline.Language,
		FeedURL:     outline.XMLUrl,
	}

	// Fallback to text if title is empty
	if c.Title == "" {
		c.Title = outline.Text
	}
	if c.Link == "" {
		c.Link = outline.XMLUrl
	}
	if c.Description == "" {
		c.Description = c.Title
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Title)
	}

	category := outline.Category
	if category == "" {
		category = parentCategory
	}
	for _, name := range strings.Split(category, ",") {
		if name = strings.TrimSpace(name); name != "" {
			c.Categories = append(c.Categories, name)
		}
	}

	return c
}

// Generate writes an OPML directory of channels. Channels are grouped by
// their first category; groups and channels keep a stable order.
func Generate(w io.Writer, channels []*model.Channel, created time.Time) error {
	categories := make(map[string][]*model.Channel)
	var names []string
	var uncategorized []*model.Channel

	for _, c := range channels {
		if len(c.Categories) == 0 {
			uncategorized = append(uncategorized, c)
			continue
		}
		name := c.Categories[0]
		if _, ok := categories[name]; !ok {
			names = append(names, name)
		}
		categories[name] = append(categories[name], c)
	}
	sort.Strings(names)

	opml := OPML{
		Version: "2.0",
		Head: Head{
			Title:       "feedgen channels",
			DateCreated: created.Format(time.RFC1123),
		},
		Body: Body{
			Outlines: []Outline{},
		},
	}

	for _, name := range names {
		categoryOutline := Outline{
			Text:     name,
			Title:    name,
			Outlines: []Outline{},
		}
		for _, c := range categories[name] {
			categoryOutline.Outlines = append(categoryOutline.Outlines, channelOutline(c))
		}
		opml.Body.Outlines = append(opml.Body.Outlines, categoryOutline)
	}

	// Add uncategorized channels directly to body
	for _, c := range uncategorized {
		opml.Body.Outlines = append(opml.Body.Outlines, channelOutline(c))
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	if err := encoder.Encode(opml); err != nil {
		return fmt.Errorf("failed to encode OPML: %w", err)
	}

	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write final newline: %w", err)
	}

	return nil
}

func channelOutline(c *model.Channel) Outline {
	return Outline{
		Type:        "rss",
		Text:        c.Title,
		Title:       c.Title,
		XMLUrl:      c.FeedURL,
		HTMLUrl:     c.Link,
		Description: c.Description,
		Language:    c.Language,
		Category:    strings.Join(c.Categories, ","),
		Slug:        c.Slug,
	}
}

// Slugify derives a URL path segment from a title: lower case ASCII
// letters and digits separated by single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		default:
			hyphen = true
		}
	}
	return b.String()
}
