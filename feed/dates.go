package feed

import "time"

const (
	// rfc2822 always carries a numeric offset, never a zone abbreviation.
	rfc2822 = time.RFC1123Z
	// rfc3339 writes "+00:00" rather than "Z" for UTC.
	rfc3339 = "2006-01-02T15:04:05-07:00"
)

// RFC2822 formats t for RSS dates, e.g. "Thu, 20 Oct 2022 12:46:17 +0000".
func RFC2822(t time.Time) string {
	return t.Format(rfc2822)
}

// RFC3339 formats t for Atom dates, e.g. "2022-10-20T12:46:17+00:00".
func RFC3339(t time.Time) string {
	return t.Format(rfc3339)
}
