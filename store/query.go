package store

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// durationPattern matches duration strings like "12h", "7d", "2w", "3m", "1y"
var durationPattern = regexp.MustCompile(`^(\d+)([hdwmy])$`)

// ParseDuration parses a duration string like "12h", "7d", "2w", "3m", "1y".
//
// Supported units:
//   - h: hours
//   - d: days
//   - w: weeks (7 days)
//   - m: months (30 days, approximation)
//   - y: years (365 days, approximation)
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("duration string is empty")
	}

	matches := durationPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid duration format: %s (expected format: <number><unit>, e.g., 12h, 7d, 2w, 3m, 1y)", s)
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number in duration: %s", matches[1])
	}

	const day = 24 * time.Hour
	var unit time.Duration
	switch matches[2] {
	case "h":
		unit = time.Hour
	case "d":
		unit = day
	case "w":
		unit = 7 * day
	case "m":
		unit = 30 * day
	case "y":
		unit = 365 * day
	}

	return time.Duration(num) * unit, nil
}

// SinceToUnixTime converts a "since" duration string (e.g., "7d") to the Unix
// timestamp that lies that long before now.
func SinceToUnixTime(since string, now time.Time) (int64, error) {
	duration, err := ParseDuration(since)
	if err != nil {
		return 0, err
	}
	return now.Add(-duration).Unix(), nil
}

// BuildQueryOptions constructs QueryOptions from CLI flags or route settings.
func BuildQueryOptions(limit, offset int, since, category string) (QueryOptions, error) {
	if limit < 0 {
		return QueryOptions{}, fmt.Errorf("limit must not be negative: %d", limit)
	}
	if offset < 0 {
		return QueryOptions{}, fmt.Errorf("offset must not be negative: %d", offset)
	}

	opts := QueryOptions{
		Limit:    limit,
		Offset:   offset,
		Category: category,
	}

	if since != "" {
		sinceUnix, err := SinceToUnixTime(since, time.Now())
		if err != nil {
			return opts, fmt.Errorf("failed to parse since: %w", err)
		}
		opts.SinceTime = &sinceUnix
	}

	return opts, nil
}
