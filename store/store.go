// Package store provides SQL storage of channels and their items for
// feedgen. SQLite is the default database; PostgreSQL is reached through
// the pgx database/sql driver.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robertmeta/feedgen/model"
	_ "modernc.org/sqlite"
)

var (
	// ErrChannelNotFound is returned when no channel matches a lookup.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrItemNotFound is returned when no item matches a lookup.
	ErrItemNotFound = errors.New("item not found")
)

// Store manages the channel database.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// QueryOptions specifies how to query items.
type QueryOptions struct {
	Limit     int
	Offset    int
	Category  string
	SinceTime *int64 // Unix timestamp
}

// New creates a new SQLite Store with the given database path.
// Use ":memory:" for an in-memory database (useful for testing).
func New(dbPath string) (*Store, error) {
	return Open(DriverSQLite, dbPath)
}

// Open opens a Store with a database/sql driver name (sqlite or pgx) and
// its data source name.
func Open(driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite && dsn == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, dialect: d, now: time.Now}

	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database/sql driver name of the store.
func (s *Store) Driver() string {
	return s.dialect.name
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(s.dialect.schema)
	return err
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

const channelColumns = "id, slug, title, link, description, language, subtitle, feed_url, " +
	"author_name, author_email, author_link, categories, copyright, guid, ttl, created_at, updated_at"

// SaveChannel saves a channel to the database.
// If the channel has an ID of 0, it will be inserted. Otherwise, it will be updated.
func (s *Store) SaveChannel(c *model.Channel) error {
	if c.Slug == "" {
		return &model.ValidationError{Scope: model.ScopeChannel, Field: "slug", Reason: "is required"}
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}

	categories, err := encodeCategories(c.Categories)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if c.ID == 0 {
		// Insert
		err := s.queryRow(ctx,
			"INSERT INTO channels (slug, title, link, description, language, subtitle, feed_url, "+
				"author_name, author_email, author_link, categories, copyright, guid, ttl, created_at, updated_at) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id",
			c.Slug, c.Title, c.Link, c.Description, c.Language, c.Subtitle, c.FeedURL,
			c.AuthorName, c.AuthorEmail, c.AuthorLink, categories, c.Copyright, c.GUID, c.TTL,
			formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
		).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("failed to insert channel: %w", err)
		}
		return nil
	}

	// Update
	_, err = s.exec(ctx,
		"UPDATE channels SET slug = ?, title = ?, link = ?, description = ?, language = ?, subtitle = ?, "+
			"feed_url = ?, author_name = ?, author_email = ?, author_link = ?, categories = ?, copyright = ?, "+
			"guid = ?, ttl = ?, created_at = ?, updated_at = ? WHERE id = ?",
		c.Slug, c.Title, c.Link, c.Description, c.Language, c.Subtitle, c.FeedURL,
		c.AuthorName, c.AuthorEmail, c.AuthorLink, categories, c.Copyright, c.GUID, c.TTL,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt), c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	return nil
}

// GetChannel retrieves a channel by ID.
func (s *Store) GetChannel(id int64) (*model.Channel, error) {
	row := s.queryRow(context.Background(), "SELECT "+channelColumns+" FROM channels WHERE id = ?", id)
	return scanChannel(row)
}

// GetChannelBySlug retrieves a channel by its slug.
func (s *Store) GetChannelBySlug(ctx context.Context, slug string) (*model.Channel, error) {
	row := s.queryRow(ctx, "SELECT "+channelColumns+" FROM channels WHERE slug = ?", slug)
	return scanChannel(row)
}

// FeedChannel loads a channel for publishing. A channel without an update
// time takes the date of its latest item, or its creation time when it has
// no items.
func (s *Store) FeedChannel(ctx context.Context, slug string) (*model.Channel, error) {
	c, err := s.GetChannelBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c.UpdatedAt.IsZero() {
		latest, err := s.LatestItemDate(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if latest.IsZero() {
			latest = c.CreatedAt
		}
		c.UpdatedAt = latest
	}
	return c, nil
}

// GetAllChannels retrieves all channels ordered by slug.
func (s *Store) GetAllChannels() ([]*model.Channel, error) {
	rows, err := s.db.Query("SELECT " + channelColumns + " FROM channels ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []*model.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}

	return channels, rows.Err()
}

// DeleteChannel deletes a channel and its items.
func (s *Store) DeleteChannel(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.dialect.rebind("DELETE FROM items WHERE channel_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}
	result, err := tx.Exec(s.dialect.rebind("DELETE FROM channels WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrChannelNotFound
	}

	return tx.Commit()
}

const itemColumns = "id, channel_id, title, link, description, description_markup, author_name, author_email, " +
	"author_link, categories, unique_id, unique_id_is_permalink, enclosure_url, enclosure_length, enclosure_type, " +
	"pub_date, updated_date, comments, copyright, ttl"

// SaveItem saves an item to the database.
// If the item has an ID of 0, it will be inserted. Otherwise, it will be updated.
func (s *Store) SaveItem(item *model.Item) error {
	if item.ChannelID == 0 {
		return &model.ValidationError{Scope: "item", Field: "channel_id", Reason: "is required"}
	}
	if err := item.Validate("item"); err != nil {
		return err
	}

	categories, err := encodeCategories(item.Categories)
	if err != nil {
		return err
	}
	var enc model.Enclosure
	if item.Enclosure != nil {
		enc = *item.Enclosure
	}
	sortKey := item.LatestDate()
	if sortKey.IsZero() {
		sortKey = s.now()
	}

	ctx := context.Background()
	if item.ID == 0 {
		// Insert
		err := s.queryRow(ctx,
			"INSERT INTO items (channel_id, title, link, description, description_markup, author_name, "+
				"author_email, author_link, categories, unique_id, unique_id_is_permalink, enclosure_url, "+
				"enclosure_length, enclosure_type, pub_date, updated_date, comments, copyright, ttl, sort_key) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id",
			item.ChannelID, item.Title, item.Link, item.Description, boolToInt(item.DescriptionMarkup),
			item.AuthorName, item.AuthorEmail, item.AuthorLink, categories, item.UniqueID,
			boolToInt(item.UniqueIDIsPermalink), enc.URL, enc.Length, enc.MIMEType,
			formatTime(item.PubDate), formatTime(item.UpdatedDate), item.Comments, item.Copyright,
			item.TTL, sortKey.Unix(),
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
		return nil
	}

	// Update
	_, err = s.exec(ctx,
		"UPDATE items SET channel_id = ?, title = ?, link = ?, description = ?, description_markup = ?, "+
			"author_name = ?, author_email = ?, author_link = ?, categories = ?, unique_id = ?, "+
			"unique_id_is_permalink = ?, enclosure_url = ?, enclosure_length = ?, enclosure_type = ?, "+
			"pub_date = ?, updated_date = ?, comments = ?, copyright = ?, ttl = ?, sort_key = ? WHERE id = ?",
		item.ChannelID, item.Title, item.Link, item.Description, boolToInt(item.DescriptionMarkup),
		item.AuthorName, item.AuthorEmail, item.AuthorLink, categories, item.UniqueID,
		boolToInt(item.UniqueIDIsPermalink), enc.URL, enc.Length, enc.MIMEType,
		formatTime(item.PubDate), formatTime(item.UpdatedDate), item.Comments, item.Copyright,
		item.TTL, sortKey.Unix(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID.
func (s *Store) GetItem(id int64) (*model.Item, error) {
	row := s.queryRow(context.Background(), "SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// DeleteItem deletes an item by ID.
func (s *Store) DeleteItem(id int64) error {
	res, err := s.exec(context.Background(), "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Items opens a cursor over a channel's items, newest first. The caller
// must drain or close the cursor.
func (s *Store) Items(ctx context.Context, channelID int64, opts QueryOptions) (*ItemCursor, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE channel_id = ?"
	args := []any{channelID}

	// Apply filters
	if opts.SinceTime != nil {
		query += " AND sort_key >= ?"
		args = append(args, *opts.SinceTime)
	}

	if opts.Category != "" {
		query += ` AND categories LIKE ? ESCAPE '\'`
		args = append(args, categoryPattern(opts.Category))
	}

	query += " ORDER BY sort_key DESC, id DESC"

	// Apply pagination
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	if opts.Offset > 0 {
		if opts.Limit <= 0 && s.dialect.name == DriverSQLite {
			// SQLite only accepts OFFSET after LIMIT.
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	return &ItemCursor{rows: rows}, nil
}

// GetItems collects a channel's items with optional filtering, pagination.
func (s *Store) GetItems(ctx context.Context, channelID int64, opts QueryOptions) ([]*model.Item, error) {
	cursor, err := s.Items(ctx, channelID, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var items []*model.Item
	for {
		item, err := cursor.Next(ctx)
		if err != nil {
			if isEOF(err) {
				return items, nil
			}
			return nil, err
		}
		items = append(items, &item)
	}
}

// LatestItemDate returns the most recent item date of a channel, or the
// zero time when the channel has no items.
func (s *Store) LatestItemDate(ctx context.Context, channelID int64) (time.Time, error) {
	var latest sql.NullInt64
	err := s.queryRow(ctx, "SELECT MAX(sort_key) FROM items WHERE channel_id = ?", channelID).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest item date: %w", err)
	}
	if !latest.Valid || latest.Int64 == 0 {
		return time.Time{}, nil
	}
	return time.Unix(latest.Int64, 0).UTC(), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChannel(row scanner) (*model.Channel, error) {
	c := &model.Channel{}
	var categories, createdAt, updatedAt string

	err := row.Scan(&c.ID, &c.Slug, &c.Title, &c.Link, &c.Description, &c.Language, &c.Subtitle, &c.FeedURL,
		&c.AuthorName, &c.AuthorEmail, &c.AuthorLink, &categories, &c.Copyright, &c.GUID, &c.TTL,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan channel: %w", err)
	}

	if c.Categories, err = decodeCategories(categories); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func scanItem(row scanner) (*model.Item, error) {
	item := &model.Item{}
	var markup, permalink int
	var categories, encURL, encLength, encType, pubDate, updatedDate string

	err := row.Scan(&item.ID, &item.ChannelID, &item.Title, &item.Link, &item.Description, &markup,
		&item.AuthorName, &item.AuthorEmail, &item.AuthorLink, &categories, &item.UniqueID, &permalink,
		&encURL, &encLength, &encType, &pubDate, &updatedDate, &item.Comments, &item.Copyright, &item.TTL)
	if err != nil {
		return nil, err
	}

	item.DescriptionMarkup = intToBool(markup)
	item.UniqueIDIsPermalink = intToBool(permalink)
	if encURL != "" {
		item.Enclosure = &model.Enclosure{URL: encURL, Length: encLength, MIMEType: encType}
	}
	if item.Categories, err = decodeCategories(categories); err != nil {
		return nil, err
	}
	if item.PubDate, err = parseTime(pubDate); err != nil {
		return nil, err
	}
	if item.UpdatedDate, err = parseTime(updatedDate); err != nil {
		return nil, err
	}
	return item, nil
}

func encodeCategories(categories []string) (string, error) {
	if len(categories) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(categories)
	if err != nil {
		return "", fmt.Errorf("failed to encode categories: %w", err)
	}
	return string(data), nil
}

func decodeCategories(s string) ([]string, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var categories []string
	if err := json.Unmarshal([]byte(s), &categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}

// categoryPattern matches a category as a quoted string inside the stored
// JSON array.
func categoryPattern(category string) string {
	quoted, _ := json.Marshal(category)
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(string(quoted))
	return "%" + escaped + "%"
}

// Times keep their offset, so they are stored as RFC 3339 text.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}

// Helper functions for boolean<->int conversion (SQLite doesn't have BOOLEAN type)
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}
