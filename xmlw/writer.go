// Package xmlw provides a minimal incremental XML emitter. It keeps an
// explicit stack of open elements so that mismatched or unclosed elements
// are reported instead of producing malformed output.
package xmlw

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnserializable is returned for text that is not valid UTF-8 or
	// contains characters that XML 1.0 cannot represent.
	ErrUnserializable = errors.New("characters not allowed in XML 1.0")
	// ErrUnencodable is returned for a CDATA section the output charset
	// cannot carry. Character references are not expanded inside CDATA.
	ErrUnencodable = errors.New("text cannot be represented in the output charset")
)

// Attr is a single attribute. Attributes are written in slice order.
type Attr struct {
	Name  string
	Value string
}

// StructureError reports misuse of the writer, which indicates a bug in the
// code driving it.
type StructureError struct {
	Op     string
	Name   string
	Open   []string
	Reason string
}

func (e *StructureError) Error() string {
	msg := fmt.Sprintf("xml structure: %s %q: %s", e.Op, e.Name, e.Reason)
	if len(e.Open) > 0 {
		msg += " (open: " + strings.Join(e.Open, " > ") + ")"
	}
	return msg
}

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", "&#xD;",
)

// Writer emits XML events to an underlying io.Writer. A Writer is owned by a
// single serialization pass and is not safe for concurrent use.
type Writer struct {
	w         *bufio.Writer
	stack     []string
	err       error
	encodable func(string) bool
}

// New creates a Writer over w.
func New(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// SetEncodable restricts CDATA sections to text for which f reports true.
// It is set when the output is converted to a charset narrower than UTF-8.
func (w *Writer) SetEncodable(f func(string) bool) {
	w.encodable = f
}

// CanEncode reports whether text can be written verbatim, as in a CDATA
// section, in the output charset.
func (w *Writer) CanEncode(text string) bool {
	return w.encodable == nil || w.encodable(text)
}

// StartDocument writes the XML prolog.
func (w *Writer) StartDocument(encoding string) error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) > 0 {
		return w.fail(&StructureError{Op: "start document", Name: encoding, Open: w.Open(), Reason: "prolog after root element"})
	}
	if encoding == "" {
		encoding = "utf-8"
	}
	return w.write(`<?xml version="1.0" encoding="` + encoding + `"?>` + "\n")
}

// StartElement opens an element and pushes it on the stack.
func (w *Writer) StartElement(name string, attrs ...Attr) error {
	if err := w.openTag(name, attrs); err != nil {
		return err
	}
	w.stack = append(w.stack, name)
	return w.write(">")
}

// SelfClosing writes an element with no content.
func (w *Writer) SelfClosing(name string, attrs ...Attr) error {
	if err := w.openTag(name, attrs); err != nil {
		return err
	}
	return w.write("/>")
}

// EndElement closes name, which must be the innermost open element.
func (w *Writer) EndElement(name string) error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) == 0 {
		return w.fail(&StructureError{Op: "end element", Name: name, Reason: "no element is open"})
	}
	top := w.stack[len(w.stack)-1]
	if top != name {
		return w.fail(&StructureError{Op: "end element", Name: name, Open: w.Open(), Reason: "innermost open element is " + top})
	}
	w.stack = w.stack[:len(w.stack)-1]
	return w.write("</" + name + ">")
}

// Characters writes escaped text inside the current element.
func (w *Writer) Characters(text string) error {
	if err := w.checkText("characters", text); err != nil {
		return err
	}
	return w.write(textEscaper.Replace(text))
}

// CData writes text as a CDATA section, splitting it around any "]]>".
func (w *Writer) CData(text string) error {
	if err := w.checkText("cdata", text); err != nil {
		return err
	}
	if !w.CanEncode(text) {
		return w.fail(fmt.Errorf("cdata of <%s>: %w", w.stack[len(w.stack)-1], ErrUnencodable))
	}
	return w.write("<![CDATA[" + strings.ReplaceAll(text, "]]>", "]]]]><![CDATA[>") + "]]>")
}

// QuickElement writes an element holding only text. An empty text yields an
// element with no content.
func (w *Writer) QuickElement(name, text string, attrs ...Attr) error {
	if text == "" {
		return w.SelfClosing(name, attrs...)
	}
	if err := w.StartElement(name, attrs...); err != nil {
		return err
	}
	if err := w.Characters(text); err != nil {
		return err
	}
	return w.EndElement(name)
}

// Flush writes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		return w.fail(err)
	}
	return nil
}

// Close verifies that every element has been closed and flushes output.
// It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) > 0 {
		return w.fail(&StructureError{Op: "close", Name: w.stack[len(w.stack)-1], Open: w.Open(), Reason: "elements left open"})
	}
	return w.Flush()
}

// Depth returns the number of open elements.
func (w *Writer) Depth() int {
	return len(w.stack)
}

// Open returns a copy of the open element names, outermost first.
func (w *Writer) Open() []string {
	open := make([]string, len(w.stack))
	copy(open, w.stack)
	return open
}

func (w *Writer) openTag(name string, attrs []Attr) error {
	if w.err != nil {
		return w.err
	}
	if name == "" {
		return w.fail(&StructureError{Op: "start element", Name: name, Open: w.Open(), Reason: "empty element name"})
	}

	var b strings.Builder
	b.WriteString("<")
	b.WriteString(name)
	for _, a := range attrs {
		if a.Name == "" {
			return w.fail(&StructureError{Op: "start element", Name: name, Open: w.Open(), Reason: "empty attribute name"})
		}
		if !ValidText(a.Value) {
			return w.fail(fmt.Errorf("attribute %s of <%s>: %w", a.Name, name, ErrUnserializable))
		}
		b.WriteString(" ")
		b.WriteString(a.Name)
		b.WriteString(`="`)
		// Quotes, tabs and newlines are escaped too.
		if err := xml.EscapeText(&b, []byte(a.Value)); err != nil {
			return w.fail(err)
		}
		b.WriteString(`"`)
	}
	return w.write(b.String())
}

func (w *Writer) checkText(op, text string) error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) == 0 {
		return w.fail(&StructureError{Op: op, Reason: "text outside the root element"})
	}
	if !ValidText(text) {
		return w.fail(fmt.Errorf("text of <%s>: %w", w.stack[len(w.stack)-1], ErrUnserializable))
	}
	return nil
}

func (w *Writer) write(s string) error {
	if _, err := w.w.WriteString(s); err != nil {
		return w.fail(err)
	}
	return nil
}

func (w *Writer) fail(err error) error {
	w.err = err
	return err
}

// ValidText reports whether s is valid UTF-8 made only of characters that
// match the XML 1.0 Char production.
func ValidText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return false
		}
	}
	return true
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= utf8.MaxRune:
		return true
	}
	return false
}
