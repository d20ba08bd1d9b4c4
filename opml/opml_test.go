package opml

import (
	"strings"
	"testing"
	"time"

	"github.com/robertmeta/feedgen/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2022, 10, 20, 12, 46, 17, 0, time.UTC)

func TestParseOPML_ValidFile(t *testing.T) {
	opmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head>
    <title>Test Channels</title>
  </head>
  <body>
    <outline text="Tech" title="Tech">
      <outline type="rss" text="Feed 1" title="Feed 1" xmlUrl="https://example.com/feed1" htmlUrl="https://example.com/1" description="First" category="tech"/>
      <outline type="rss" text="Feed 2" title="Feed 2" xmlUrl="https://example.com/feed2" category="tech,go" slug="second"/>
    </outline>
    <outline type="rss" text="Feed 3" title="Feed 3" xmlUrl="https://example.com/feed3" category="blog" language="de"/>
  </body>
</opml>`

	channels, err := Parse(strings.NewReader(opmlContent))
	require.NoError(t, err)
	require.Len(t, channels, 3, "Should parse 3 channels")

	assert.Equal(t, "https://example.com/feed1", channels[0].FeedURL)
	assert.Equal(t, "https://example.com/1", channels[0].Link)
	assert.Equal(t, "Feed 1", channels[0].Title)
	assert.Equal(t, "First", channels[0].Description)
	assert.Equal(t, "feed-1", channels[0].Slug)
	assert.Equal(t, []string{"tech"}, channels[0].Categories)

	assert.Equal(t, "second", channels[1].Slug)
	assert.Equal(t, "https://example.com/feed2", channels[1].Link, "link falls back to the feed url")
	assert.Equal(t, "Feed 2", channels[1].Description, "description falls back to the title")
	assert.Equal(t, []string{"tech", "go"}, channels[1].Categories)

	assert.Equal(t, "de", channels[2].Language)
	assert.Equal(t, []string{"blog"}, channels[2].Categories)

	for _, c := range channels {
		assert.NoError(t, c.Validate(), "imported channels are valid")
	}
}

func TestParseOPML_FlatStructure(t *testing.T) {
	opmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>Flat</title></head>
  <body>
    <outline type="rss" text="Feed A" title="Feed A" xmlUrl="https://example.com/a"/>
    <outline type="rss" text="Feed B" title="Feed B" xmlUrl="https://example.com/b"/>
  </body>
</opml>`

	channels, err := Parse(strings.NewReader(opmlContent))
	require.NoError(t, err)
	assert.Len(t, channels, 2)
	assert.Empty(t, channels[0].Categories)
}

func TestParseOPML_InvalidXML(t *testing.T) {
	_, err := Parse(strings.NewReader(`<invalid>xml</broken>`))
	assert.Error(t, err, "Should error on invalid XML")
}

func TestParseOPML_EmptyFile(t *testing.T) {
	emptyContent := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>Empty</title></head>
  <body></body>
</opml>`

	channels, err := Parse(strings.NewReader(emptyContent))
	require.NoError(t, err)
	assert.Len(t, channels, 0, "Empty OPML should return no channels")
}

func TestParseOPML_MissingXmlUrl(t *testing.T) {
	opmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <body>
    <outline type="rss" text="Valid Feed" xmlUrl="https://example.com/feed"/>
    <outline type="rss" text="Invalid Feed"/>
  </body>
</opml>`

	channels, err := Parse(strings.NewReader(opmlContent))
	require.NoError(t, err)
	require.Len(t, channels, 1, "Should skip outlines without xmlUrl")
	assert.Equal(t, "https://example.com/feed", channels[0].FeedURL)
	assert.Equal(t, "Valid Feed", channels[0].Title, "title falls back to text")
}

func TestParseOPML_CategoryInheritance(t *testing.T) {
	opmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <body>
    <outline text="Tech News" title="Tech News">
      <outline type="rss" text="Feed 1" xmlUrl="https://example.com/feed1" category="tech"/>
      <outline type="rss" text="Feed 2" xmlUrl="https://example.com/feed2"/>
    </outline>
  </body>
</opml>`

	channels, err := Parse(strings.NewReader(opmlContent))
	require.NoError(t, err)
	require.Len(t, channels, 2)

	assert.Equal(t, []string{"tech"}, channels[0].Categories)
	assert.Equal(t, []string{"Tech News"}, channels[1].Categories)
}

func TestGenerateOPML(t *testing.T) {
	channels := []*model.Channel{
		{Slug: "one", FeedURL: "https://example.com/feed1", Link: "https://example.com/1", Title: "Feed 1", Description: "d", Categories: []string{"tech"}},
		{Slug: "two", FeedURL: "https://example.com/feed2", Link: "https://example.com/2", Title: "Feed 2", Description: "d", Categories: []string{"tech", "go"}},
		{Slug: "three", FeedURL: "https://example.com/feed3", Link: "https://example.com/3", Title: "Feed 3", Description: "d", Categories: []string{"blog"}},
		{Slug: "four", FeedURL: "https://example.com/feed4", Link: "https://example.com/4", Title: "Feed 4", Description: "d"},
	}

	var buf strings.Builder
	require.NoError(t, Generate(&buf, channels, created))

	output := buf.String()
	assert.Contains(t, output, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, output, `<opml version="2.0">`)
	assert.Contains(t, output, `<dateCreated>Thu, 20 Oct 2022 12:46:17 UTC</dateCreated>`)

	assert.Contains(t, output, `xmlUrl="https://example.com/feed1"`)
	assert.Contains(t, output, `htmlUrl="https://example.com/2"`)
	assert.Contains(t, output, `category="tech,go"`)
	assert.Contains(t, output, `slug="three"`)

	// Category groups are sorted, uncategorized channels come last
	blog := strings.Index(output, `text="blog"`)
	tech := strings.Index(output, `text="tech"`)
	four := strings.Index(output, `slug="four"`)
	assert.Less(t, blog, tech)
	assert.Less(t, tech, four)
}

func TestGenerateOPML_EmptyList(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, Generate(&buf, nil, created))

	output := buf.String()
	assert.Contains(t, output, `<opml version="2.0">`)
	assert.Contains(t, output, `<body></body>`)
}

func TestRoundTrip(t *testing.T) {
	exported := []*model.Channel{
		{Slug: "a", FeedURL: "https://example.com/feed1", Link: "https://example.com/1", Title: "Feed 1", Description: "One", Language: "en", Categories: []string{"tech"}},
		{Slug: "b", FeedURL: "https://example.com/feed2", Link: "https://example.com/2", Title: "Feed 2", Description: "Two"},
	}

	var buf strings.Builder
	require.NoError(t, Generate(&buf, exported, created))

	parsed, err := Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	for i := range exported {
		assert.Equal(t, exported[i].Slug, parsed[i].Slug)
		assert.Equal(t, exported[i].FeedURL, parsed[i].FeedURL)
		assert.Equal(t, exported[i].Link, parsed[i].Link)
		assert.Equal(t, exported[i].Title, parsed[i].Title)
		assert.Equal(t, exported[i].Description, parsed[i].Description)
		assert.Equal(t, exported[i].Language, parsed[i].Language)
		assert.Equal(t, exported[i].Categories, parsed[i].Categories)
	}
}

func TestGenerateOPML_SpecialCharacters(t *testing.T) {
	channels := []*model.Channel{
		{Slug: "s", FeedURL: "https://example.com/feed?id=1&type=rss", Title: "Feed with & < >", Description: "d", Link: "l"},
	}

	var buf strings.Builder
	require.NoError(t, Generate(&buf, channels, created))

	parsed, err := Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "https://example.com/feed?id=1&type=rss", parsed[0].FeedURL)
	assert.Equal(t, "Feed with & < >", parsed[0].Title)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hacker News", "hacker-news"},
		{"  Go -- Weekly!  ", "go-weekly"},
		{"Café 2024", "caf-2024"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}
