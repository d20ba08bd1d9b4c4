package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robertmeta/feedgen/config"
	"github.com/robertmeta/feedgen/feed"
	"github.com/robertmeta/feedgen/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func run(t *testing.T, db string, args ...string) error {
	t.Helper()
	app := newApp()
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app.Run(append([]string{"feedgen", "--db", db}, args...))
}

func addNewsChannel(t *testing.T, db string) {
	t.Helper()
	require.NoError(t, run(t, db, "channel", "add",
		"--title", "News",
		"--link", "https://example.com/",
		"--description", "Latest news",
		"--feed-url", "https://example.com/news.xml",
		"--category", "tech",
		"news"))
}

func TestCLI_BuildAtom(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "feedgen.db")
	addNewsChannel(t, db)

	require.NoError(t, run(t, db, "item", "add",
		"--title", "First",
		"--link", "https://example.com/first",
		"--pubdate", "2022-10-20T12:46:17Z",
		"--uuid",
		"news"))
	require.NoError(t, run(t, db, "item", "add",
		"--title", "Second",
		"--link", "https://example.com/second",
		"--pubdate", "2022-10-21T08:00:00+02:00",
		"news"))

	out := filepath.Join(dir, "news.atom")
	require.NoError(t, run(t, db, "build", "--format", "atom", "--output", out, "--check", "news"))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	report, err := feed.NewChecker().Check(f)
	require.NoError(t, err)
	assert.Equal(t, "atom", report.Type)
	assert.Equal(t, "News", report.Title)
	require.Len(t, report.Items, 2)
	assert.Equal(t, "Second", report.Items[0].Title, "newest first")
	assert.True(t, strings.HasPrefix(report.Items[1].GUID, "urn:uuid:"))

	matches, err := filepath.Glob(filepath.Join(dir, ".feedgen-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary files are cleaned up")
}

func TestCLI_Errors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "feedgen.db")
	addNewsChannel(t, db)

	tests := []struct {
		name     string
		args     []string
		exitCode int
	}{
		{"unknown channel", []string{"build", "missing"}, ExitDataError},
		{"unknown format", []string{"build", "--format", "json", "news"}, ExitUsageError},
		{"naive date", []string{"item", "add", "--title", "x", "--pubdate", "2022-10-20 12:00:00", "news"}, ExitUsageError},
		{"empty item", []string{"item", "add", "news"}, ExitUsageError},
		{"duplicate slug", []string{"channel", "add", "--title", "x", "--link", "https://x", "--description", "x", "news"}, ExitDataError},
		{"bad item id", []string{"item", "remove", "abc"}, ExitUsageError},
		{"missing item", []string{"item", "remove", "42"}, ExitDataError},
		{"negative limit", []string{"item", "list", "--limit", "-1", "news"}, ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t, db, tt.args...)
			require.Error(t, err)

			var exitErr cli.ExitCoder
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tt.exitCode, exitErr.ExitCode())
		})
	}
}

func TestCLI_RemoveChannel(t *testing.T) {
	db := filepath.Join(t.TempDir(), "feedgen.db")
	addNewsChannel(t, db)

	require.NoError(t, run(t, db, "channel", "remove", "news"))

	s, err := store.New(db)
	require.NoError(t, err)
	defer s.Close()
	channels, err := s.GetAllChannels()
	require.NoError(t, err)
	assert.Empty(t, channels)
}

func TestCLI_OPMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "feedgen.db")
	addNewsChannel(t, db)

	out := filepath.Join(dir, "channels.opml")
	require.NoError(t, run(t, db, "export", "--output", out))

	other := filepath.Join(dir, "other.db")
	require.NoError(t, run(t, other, "import", out))

	s, err := store.New(other)
	require.NoError(t, err)
	defer s.Close()
	channels, err := s.GetAllChannels()
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "news", channels[0].Slug)
	assert.Equal(t, "News", channels[0].Title)
	assert.Equal(t, []string{"tech"}, channels[0].Categories)
	assert.True(t, strings.HasPrefix(channels[0].GUID, "urn:uuid:"))
}

func TestNewRouter(t *testing.T) {
	db := filepath.Join(t.TempDir(), "feedgen.db")
	addNewsChannel(t, db)
	require.NoError(t, run(t, db, "item", "add",
		"--title", "First",
		"--link", "/first",
		"--pubdate", "2022-10-20T12:46:17Z",
		"news"))

	cfg, err := config.Parse([]byte(`
server:
  domain: feeds.example.com
routes:
  - path: /news.xml
    channel: news
  - path: /feeds/{slug}/atom
    format: atom
`))
	require.NoError(t, err)

	s, err := store.New(db)
	require.NoError(t, err)
	defer s.Close()

	router, err := newRouter(cfg, s, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/news.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<link>http://feeds.example.com/first</link>")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feeds/news/atom", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<feed xmlns="http://www.w3.org/2005/Atom"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feeds/other/atom", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
