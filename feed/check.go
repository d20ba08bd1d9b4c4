package feed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Report summarizes a feed as a reader sees it after parsing.
type Report struct {
	Type    string        `json:"type"`
	Version string        `json:"version"`
	Title   string        `json:"title"`
	Link    string        `json:"link,omitempty"`
	Updated *time.Time    `json:"updated,omitempty"`
	Items   []ReportEntry `json:"items"`
}

// ReportEntry is one parsed item or entry.
type ReportEntry struct {
	Title       string     `json:"title,omitempty"`
	Link        string     `json:"link,omitempty"`
	GUID        string     `json:"guid,omitempty"`
	Description string     `json:"description,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
	Published   *time.Time `json:"published,omitempty"`
	Updated     *time.Time `json:"updated,omitempty"`
}

// Checker parses generated feeds back with a general-purpose feed reader to
// confirm they are readable.
type Checker struct {
	parser *gofeed.Parser
}

// NewChecker creates a new Checker.
func NewChecker() *Checker {
	return &Checker{
		parser: gofeed.NewParser(),
	}
}

// Check parses a feed document from r.
func (c *Checker) Check(r io.Reader) (*Report, error) {
	parsed, err := c.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return c.convert(parsed), nil
}

// CheckString parses a feed document held in a string.
func (c *Checker) CheckString(content string) (*Report, error) {
	if content == "" {
		return nil, fmt.Errorf("feed content is empty")
	}
	return c.Check(strings.NewReader(content))
}

// convert converts a gofeed.Feed to a Report.
func (c *Checker) convert(gf *gofeed.Feed) *Report {
	report := &Report{
		Type:    gf.FeedType,
		Version: gf.FeedVersion,
		Title:   gf.Title,
		Link:    gf.Link,
		Updated: gf.UpdatedParsed,
		Items:   make([]ReportEntry, 0, len(gf.Items)),
	}

	for _, item := range gf.Items {
		report.Items = append(report.Items, ReportEntry{
			Title:       item.Title,
			Link:        item.Link,
			GUID:        item.GUID,
			Description: item.Description,
			Categories:  item.Categories,
			Published:   item.PublishedParsed,
			Updated:     item.UpdatedParsed,
		})
	}

	return report
}
