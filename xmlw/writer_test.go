package xmlw

import (
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Document(t *testing.T) {
	var buf strings.Builder
	w := New(&buf)

	require.NoError(t, w.StartDocument(""))
	require.NoError(t, w.StartElement("rss", Attr{"version", "2.0"}, Attr{"xmlns:atom", "http://www.w3.org/2005/Atom"}))
	require.NoError(t, w.StartElement("channel"))
	require.NoError(t, w.QuickElement("title", "Example"))
	require.NoError(t, w.SelfClosing("atom:link", Attr{"rel", "self"}, Attr{"href", "http://example.com/feed"}))
	assert.Equal(t, 2, w.Depth())
	require.NoError(t, w.EndElement("channel"))
	require.NoError(t, w.EndElement("rss"))
	require.NoError(t, w.Close())

	expected := `<?xml version="1.0" encoding="utf-8"?>` + "\n" +
		`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom"><channel><title>Example</title>` +
		`<atom:link rel="self" href="http://example.com/feed"/></channel></rss>`
	assert.Equal(t, expected, buf.String())
}

func TestWriter_Prolog(t *testing.T) {
	var buf strings.Builder
	w := New(&buf)

	require.NoError(t, w.StartDocument("iso-8859-1"))
	require.NoError(t, w.Flush())
	assert.Equal(t, `<?xml version="1.0" encoding="iso-8859-1"?>`+"\n", buf.String())
}

func TestWriter_EndElementMismatch(t *testing.T) {
	var buf strings.Builder
	w := New(&buf)

	require.NoError(t, w.StartElement("feed"))
	require.NoError(t, w.StartElement("entry"))

	err := w.EndElement("feed")
	var serr *StructureError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "feed", serr.Name)
	assert.Equal(t, []string{"feed", "entry"}, serr.Open)

	// The writer stays failed after the first error
	assert.Equal(t, err, w.EndElement("entry"))
	assert.Equal(t, err, w.Close())
}

func TestWriter_EndElementEmptyStack(t *testing.T) {
	w := New(&strings.Builder{})

	err := w.EndElement("item")
	var serr *StructureError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Error(), "no element is open")
}

func TestWriter_CloseWithOpenElements(t *testing.T) {
	var buf strings.Builder
	w := New(&buf)

	require.NoError(t, w.StartElement("rss"))
	require.NoError(t, w.StartElement("channel"))

	err := w.Close()
	var serr *StructureError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []string{"rss", "channel"}, serr.Open)
	assert.Contains(t, err.Error(), "rss > channel")
}

func TestWriter_TextOutsideRoot(t *testing.T) {
	w := New(&strings.Builder{})

	var serr *StructureError
	assert.ErrorAs(t, w.Characters("stray"), &serr)
}

func TestWriter_ControlCharacters(t *testing.T) {
	w := New(&strings.Builder{})
	require.NoError(t, w.StartElement("title"))

	err := w.Characters("bad\x0bvalue")
	assert.True(t, errors.Is(err, ErrUnserializable))
}

func TestWriter_InvalidCharacters(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"invalid utf-8", "bad \xff byte"},
		{"truncated sequence", "caf\xc3"},
		{"noncharacter fffe", "nonchar \uFFFE"},
		{"noncharacter ffff", "nonchar \uFFFF"},
		{"encoded surrogate", "half \xed\xa0\x80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, ValidText(tt.text))

			var buf strings.Builder
			w := New(&buf)
			require.NoError(t, w.StartElement("title"))
			assert.ErrorIs(t, w.Characters(tt.text), ErrUnserializable)
			assert.ErrorIs(t, w.Close(), ErrUnserializable, "writer stays failed")

			w = New(&strings.Builder{})
			require.NoError(t, w.StartElement("description"))
			assert.ErrorIs(t, w.CData(tt.text), ErrUnserializable)

			w = New(&strings.Builder{})
			assert.ErrorIs(t, w.SelfClosing("link", Attr{"href", tt.text}), ErrUnserializable)
		})
	}

	assert.True(t, ValidText("tab\there, emoji \U0001F600, replacement \uFFFD"))
}

func TestWriter_CDataOutsideCharset(t *testing.T) {
	asciiOnly := func(s string) bool {
		for _, r := range s {
			if r > 0x7f {
				return false
			}
		}
		return true
	}

	var buf strings.Builder
	w := New(&buf)
	w.SetEncodable(asciiOnly)
	require.NoError(t, w.StartElement("description"))

	assert.True(t, w.CanEncode("<p>5 EUR</p>"))
	assert.False(t, w.CanEncode("<p>5 €</p>"))
	require.NoError(t, w.CData("<p>5 EUR</p>"))
	assert.ErrorIs(t, w.CData("<p>5 €</p>"), ErrUnencodable)
}

func TestWriter_ControlCharacterInAttribute(t *testing.T) {
	w := New(&strings.Builder{})

	err := w.SelfClosing("link", Attr{"href", "http://example.com/\x01"})
	assert.True(t, errors.Is(err, ErrUnserializable))
}

func TestWriter_EmptyNames(t *testing.T) {
	var serr *StructureError

	w := New(&strings.Builder{})
	assert.ErrorAs(t, w.StartElement(""), &serr)

	w = New(&strings.Builder{})
	assert.ErrorAs(t, w.SelfClosing("link", Attr{"", "x"}), &serr)
}

func TestWriter_Escaping(t *testing.T) {
	texts := []string{
		`Fish & Chips`,
		`<script>alert("x")</script>`,
		`a > b && c < d`,
		`"double" and 'single' quotes`,
		"tab\tnewline\ncarriage\rreturn",
		`&amp; already escaped`,
		`]]> in text`,
	}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			var buf strings.Builder
			w := New(&buf)
			require.NoError(t, w.StartElement("root", Attr{"title", text}))
			require.NoError(t, w.Characters(text))
			require.NoError(t, w.EndElement("root"))
			require.NoError(t, w.Close())

			var parsed struct {
				Title string `xml:"title,attr"`
				Body  string `xml:",chardata"`
			}
			require.NoError(t, xml.Unmarshal([]byte(buf.String()), &parsed))
			assert.Equal(t, text, parsed.Title, "attribute round trip")
			assert.Equal(t, text, parsed.Body, "text round trip")
		})
	}
}

func TestWriter_CData(t *testing.T) {
	texts := []string{
		`<p>Hello <b>world</b></p>`,
		`a ]]> b`,
		`]]>]]>`,
	}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			var buf strings.Builder
			w := New(&buf)
			require.NoError(t, w.StartElement("description"))
			require.NoError(t, w.CData(text))
			require.NoError(t, w.EndElement("description"))
			require.NoError(t, w.Close())

			var parsed struct {
				Body string `xml:",chardata"`
			}
			require.NoError(t, xml.Unmarshal([]byte(buf.String()), &parsed))
			assert.Equal(t, text, parsed.Body)
		})
	}
}

func TestWriter_QuickElementEmpty(t *testing.T) {
	var buf strings.Builder
	w := New(&buf)

	require.NoError(t, w.QuickElement("enclosure", "", Attr{"url", "http://example.com/a.mp3"}))
	require.NoError(t, w.Close())
	assert.Equal(t, `<enclosure url="http://example.com/a.mp3"/>`, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriter_SinkError(t *testing.T) {
	w := New(failingWriter{})

	require.NoError(t, w.StartElement("rss"))
	require.NoError(t, w.EndElement("rss"))

	err := w.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, err, w.StartElement("rss"))
}
