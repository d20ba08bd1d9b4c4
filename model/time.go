package model

import (
	"strings"
	"time"
)

// offsetLayouts carry an explicit zone offset.
var offsetLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC822Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// naiveLayouts are recognized only to produce a precise error.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses a timezone-aware date. Dates without an explicit offset
// are rejected instead of being assumed to be UTC. An empty string yields
// the zero time.
func ParseTime(scope, field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	for _, layout := range naiveLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return time.Time{}, &ValidationError{Scope: scope, Field: field, Reason: "has no timezone offset: " + s}
		}
	}

	return time.Time{}, &ValidationError{Scope: scope, Field: field, Reason: "is not a recognized date: " + s}
}
