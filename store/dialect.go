package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// dialect holds what differs between the supported databases.
type dialect struct {
	name   string
	schema string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var sqliteDialect = dialect{
	name: DriverSQLite,
	schema: `
	CREATE TABLE IF NOT EXISTS channels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		description TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		subtitle TEXT NOT NULL DEFAULT '',
		feed_url TEXT NOT NULL DEFAULT '',
		author_name TEXT NOT NULL DEFAULT '',
		author_email TEXT NOT NULL DEFAULT '',
		author_link TEXT NOT NULL DEFAULT '',
		categories TEXT NOT NULL DEFAULT '[]',
		copyright TEXT NOT NULL DEFAULT '',
		guid TEXT NOT NULL DEFAULT '',
		ttl INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		channel_id INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		description_markup INTEGER NOT NULL DEFAULT 0,
		author_name TEXT NOT NULL DEFAULT '',
		author_email TEXT NOT NULL DEFAULT '',
		author_link TEXT NOT NULL DEFAULT '',
		categories TEXT NOT NULL DEFAULT '[]',
		unique_id TEXT NOT NULL DEFAULT '',
		unique_id_is_permalink INTEGER NOT NULL DEFAULT 0,
		enclosure_url TEXT NOT NULL DEFAULT '',
		enclosure_length TEXT NOT NULL DEFAULT '',
		enclosure_type TEXT NOT NULL DEFAULT '',
		pub_date TEXT NOT NULL DEFAULT '',
		updated_date TEXT NOT NULL DEFAULT '',
		comments TEXT NOT NULL DEFAULT '',
		copyright TEXT NOT NULL DEFAULT '',
		ttl INTEGER NOT NULL DEFAULT 0,
		sort_key INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (channel_id) REFERENCES channels(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_items_channel_sort ON items(channel_id, sort_key DESC);
	`,
}

var postgresDialect = dialect{
	name:     DriverPostgres,
	numbered: true,
	schema: `
	CREATE TABLE IF NOT EXISTS channels (
		id BIGSERIAL PRIMARY KEY,
		slug TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		description TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		subtitle TEXT NOT NULL DEFAULT '',
		feed_url TEXT NOT NULL DEFAULT '',
		author_name TEXT NOT NULL DEFAULT '',
		author_email TEXT NOT NULL DEFAULT '',
		author_link TEXT NOT NULL DEFAULT '',
		categories TEXT NOT NULL DEFAULT '[]',
		copyright TEXT NOT NULL DEFAULT '',
		guid TEXT NOT NULL DEFAULT '',
		ttl INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS items (
		id BIGSERIAL PRIMARY KEY,
		channel_id BIGINT NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
		title TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		description_markup INTEGER NOT NULL DEFAULT 0,
		author_name TEXT NOT NULL DEFAULT '',
		author_email TEXT NOT NULL DEFAULT '',
		author_link TEXT NOT NULL DEFAULT '',
		categories TEXT NOT NULL DEFAULT '[]',
		unique_id TEXT NOT NULL DEFAULT '',
		unique_id_is_permalink INTEGER NOT NULL DEFAULT 0,
		enclosure_url TEXT NOT NULL DEFAULT '',
		enclosure_length TEXT NOT NULL DEFAULT '',
		enclosure_type TEXT NOT NULL DEFAULT '',
		pub_date TEXT NOT NULL DEFAULT '',
		updated_date TEXT NOT NULL DEFAULT '',
		comments TEXT NOT NULL DEFAULT '',
		copyright TEXT NOT NULL DEFAULT '',
		ttl INTEGER NOT NULL DEFAULT 0,
		sort_key BIGINT NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_items_channel_sort ON items(channel_id, sort_key DESC);
	`,
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver: %s (expected %s or %s)", driver, DriverSQLite, DriverPostgres)
	}
}

// rebind rewrites ? placeholders for drivers that number them. Queries in
// this package never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
