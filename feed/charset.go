package feed

import (
	"io"
	"strings"

	"github.com/robertmeta/feedgen/model"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when Write is given an empty encoding name.
const DefaultEncoding = "utf-8"

// charset is the output conversion for one Write.
type charset struct {
	w io.Writer
	// close flushes the converter; it does not close the underlying writer.
	close func() error
	// encodable reports whether text survives the conversion unchanged. It
	// is nil for UTF-8.
	encodable func(string) bool
}

// encodeTo wraps w so that UTF-8 output is converted to the named charset.
// Names are resolved through the IANA registry, which is what XML parsers
// read the prolog against. Runes the charset cannot represent become
// numeric character references in text and attributes.
func encodeTo(w io.Writer, name string) (charset, error) {
	utf8 := charset{w: w, close: func() error { return nil }}
	if name == "" || strings.EqualFold(name, DefaultEncoding) || strings.EqualFold(name, "utf8") {
		return utf8, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return charset{}, &model.ValidationError{Scope: "document", Field: "encoding", Reason: "is not supported: " + name}
	}
	if canonical, _ := ianaindex.IANA.Name(enc); strings.EqualFold(canonical, "UTF-8") {
		return utf8, nil
	}

	tw := transform.NewWriter(w, encoding.HTMLEscapeUnsupported(enc.NewEncoder()))
	return charset{
		w:     tw,
		close: tw.Close,
		encodable: func(s string) bool {
			_, err := enc.NewEncoder().String(s)
			return err == nil
		},
	}, nil
}
