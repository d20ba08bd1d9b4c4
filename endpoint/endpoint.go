// Package endpoint serves feed documents over HTTP. A Provider supplies the
// channel and items for a request; the handler serializes them to a
// temporary file and only answers once the whole document was written, so
// a failed serialization never reaches the client as a truncated body.
package endpoint

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/robertmeta/feedgen/feed"
	"github.com/robertmeta/feedgen/logger"
	"github.com/robertmeta/feedgen/model"
	"go.uber.org/zap"
	"golang.org/x/net/idna"
)

// ErrFeedNotFound is returned by a Provider when the request names no
// known feed. The handler answers 404.
var ErrFeedNotFound = errors.New("feed not found")

// Provider supplies the content of a feed for a request.
type Provider interface {
	Channel(r *http.Request) (model.Channel, error)
	// Items returns the request's items. If the source also implements
	// io.Closer the handler closes it after writing.
	Items(r *http.Request) (feed.ItemSource, error)
}

// Handler is an http.Handler that serves one feed format.
type Handler struct {
	provider Provider
	format   feed.Format
	domain   string
	encoding string
	tempDir  string
	log      *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithDomain sets the host used to make relative links absolute. It
// defaults to the request's Host header.
func WithDomain(domain string) Option {
	return func(h *Handler) {
		h.domain = domain
	}
}

// WithEncoding sets the character encoding of responses.
func WithEncoding(encoding string) Option {
	return func(h *Handler) {
		h.encoding = encoding
	}
}

// WithTempDir sets the directory of the temporary output files.
func WithTempDir(dir string) Option {
	return func(h *Handler) {
		h.tempDir = dir
	}
}

// WithLogger sets the logger for request failures.
func WithLogger(log *zap.Logger) Option {
	return func(h *Handler) {
		h.log = log
	}
}

// New creates a Handler serving provider's feeds in format.
func New(provider Provider, format feed.Format, opts ...Option) *Handler {
	h := &Handler{
		provider: provider,
		format:   format,
		encoding: feed.DefaultEncoding,
		log:      logger.Z,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.encoding == "" {
		h.encoding = feed.DefaultEncoding
	}

	if h.domain != "" {
		ascii, err := hostToASCII(h.domain)
		if err != nil {
			h.log.Warn("domain is not a valid host name, using it unchanged",
				zap.String("domain", h.domain), zap.Error(err))
		} else {
			h.domain = ascii
		}
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	ch, err := h.provider.Channel(r)
	if errors.Is(err, ErrFeedNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.fail(w, r, "failed to load channel", err)
		return
	}

	src, err := h.provider.Items(r)
	if err != nil {
		h.fail(w, r, "failed to load items", err)
		return
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	domain := h.domain
	if domain == "" {
		domain = r.Host
	}
	secure := r.TLS != nil

	if ch.FeedURL == "" {
		ch.FeedURL = r.URL.Path
	}
	ch.Link = absoluteURL(domain, ch.Link, secure)
	ch.FeedURL = absoluteURL(domain, ch.FeedURL, secure)
	ch.AuthorLink = absoluteURL(domain, ch.AuthorLink, secure)

	items := feed.ItemSourceFunc(func(ctx context.Context) (model.Item, error) {
		item, err := src.Next(ctx)
		if err != nil {
			return item, err
		}
		item.Link = absoluteURL(domain, item.Link, secure)
		item.Comments = absoluteURL(domain, item.Comments, secure)
		if item.Enclosure != nil {
			enc := *item.Enclosure
			enc.URL = absoluteURL(domain, enc.URL, secure)
			item.Enclosure = &enc
		}
		return item, nil
	})

	doc, err := feed.New(ch, h.format, feed.WithItems(items))
	if err != nil {
		h.fail(w, r, "invalid channel", err)
		return
	}

	tmp, err := os.CreateTemp(h.tempDir, "feedgen-*.xml")
	if err != nil {
		h.fail(w, r, "failed to create temporary file", err)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := doc.WriteContext(r.Context(), tmp, h.encoding); err != nil {
		h.fail(w, r, "failed to write feed", err)
		return
	}
	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		h.fail(w, r, "failed to size feed", err)
		return
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		h.fail(w, r, "failed to rewind feed", err)
		return
	}

	header := w.Header()
	header.Set("Content-Type", h.contentType())
	header.Set("Content-Length", strconv.FormatInt(size, 10))
	if updated := doc.Channel().UpdatedAt; !updated.IsZero() {
		header.Set("Last-Modified", updated.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, tmp); err != nil {
		h.log.Warn("failed to send feed", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (h *Handler) contentType() string {
	if strings.EqualFold(h.encoding, feed.DefaultEncoding) {
		return h.format.ContentType()
	}
	base, _, _ := strings.Cut(h.format.ContentType(), ";")
	return base + "; charset=" + h.encoding
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.Error(msg,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// absoluteURL prefixes links that have no scheme with the request scheme
// and domain. Protocol-relative links only get the scheme.
func absoluteURL(domain, link string, secure bool) string {
	if link == "" {
		return link
	}
	scheme := "http"
	if secure {
		scheme = "https"
	}

	switch {
	case strings.HasPrefix(link, "//"):
		return scheme + ":" + link
	case strings.Contains(link, "://"), strings.HasPrefix(link, "mailto:"):
		return link
	default:
		if !strings.HasPrefix(link, "/") {
			link = "/" + link
		}
		return scheme + "://" + domain + link
	}
}

// hostToASCII converts an internationalized host, with an optional port,
// to its ASCII form.
func hostToASCII(host string) (string, error) {
	name, port, err := net.SplitHostPort(host)
	if err != nil {
		name, port = host, ""
	}

	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", err
	}
	if port != "" {
		return net.JoinHostPort(ascii, port), nil
	}
	return ascii, nil
}
