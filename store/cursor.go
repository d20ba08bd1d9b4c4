package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/robertmeta/feedgen/model"
)

// ItemCursor yields the rows of an item query one at a time. It satisfies
// feed.ItemSource, so a feed can be written straight from the database
// without loading every item first. A cursor is not safe for concurrent use.
type ItemCursor struct {
	rows   *sql.Rows
	closed bool
}

// Next returns the next item, or io.EOF once the rows are exhausted. The
// cursor closes itself at the end of the rows or on the first error.
func (c *ItemCursor) Next(ctx context.Context) (model.Item, error) {
	if c.closed {
		return model.Item{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		c.Close()
		return model.Item{}, err
	}

	if !c.rows.Next() {
		err := c.rows.Err()
		c.Close()
		if err != nil {
			return model.Item{}, fmt.Errorf("failed to read items: %w", err)
		}
		return model.Item{}, io.EOF
	}

	item, err := scanItem(c.rows)
	if err != nil {
		c.Close()
		return model.Item{}, fmt.Errorf("failed to scan item: %w", err)
	}
	return *item, nil
}

// Close releases the underlying rows. It is safe to call more than once.
func (c *ItemCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
