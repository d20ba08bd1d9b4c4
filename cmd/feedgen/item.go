package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/robertmeta/feedgen/model"
	"github.com/robertmeta/feedgen/store"
	"github.com/urfave/cli/v2"
)

func itemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Item title"},
		&cli.StringFlag{Name: "link", Usage: "Item URL"},
		&cli.StringFlag{Name: "description", Usage: "Item description"},
		&cli.BoolFlag{Name: "markup", Usage: "Description is HTML and is written as CDATA"},
		&cli.StringFlag{Name: "author-name", Usage: "Author name"},
		&cli.StringFlag{Name: "author-email", Usage: "Author email"},
		&cli.StringFlag{Name: "author-link", Usage: "Author URL"},
		&cli.StringSliceFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category (repeatable)"},
		&cli.StringFlag{Name: "unique-id", Usage: "Unique identifier (RSS guid, Atom id)"},
		&cli.BoolFlag{Name: "permalink", Usage: "The unique id is a permanent URL"},
		&cli.BoolFlag{Name: "uuid", Usage: "Generate a urn:uuid unique id"},
		&cli.StringFlag{Name: "enclosure-url", Usage: "Media enclosure URL"},
		&cli.StringFlag{Name: "enclosure-length", Usage: "Media enclosure size in bytes"},
		&cli.StringFlag{Name: "enclosure-type", Usage: "Media enclosure MIME type"},
		&cli.StringFlag{Name: "pubdate", Usage: "Publication time (RFC 3339 with offset)"},
		&cli.StringFlag{Name: "updated", Usage: "Last update time (RFC 3339 with offset)"},
		&cli.StringFlag{Name: "comments", Usage: "URL of the comments page"},
		&cli.StringFlag{Name: "copyright", Usage: "Copyright notice"},
		&cli.IntFlag{Name: "ttl", Usage: "Minutes a reader may cache the item (RSS)"},
	}
}

func itemFromFlags(c *cli.Context) (*model.Item, error) {
	pubDate, err := model.ParseTime("item", "pubdate", c.String("pubdate"))
	if err != nil {
		return nil, err
	}
	updated, err := model.ParseTime("item", "updateddate", c.String("updated"))
	if err != nil {
		return nil, err
	}

	uniqueID := c.String("unique-id")
	if uniqueID == "" && c.Bool("uuid") {
		uniqueID = "urn:uuid:" + uuid.New().String()
	}

	item := &model.Item{
		Title:               c.String("title"),
		Link:                c.String("link"),
		Description:         c.String("description"),
		DescriptionMarkup:   c.Bool("markup"),
		AuthorName:          c.String("author-name"),
		AuthorEmail:         c.String("author-email"),
		AuthorLink:          c.String("author-link"),
		Categories:          c.StringSlice("category"),
		UniqueID:            uniqueID,
		UniqueIDIsPermalink: c.Bool("permalink"),
		PubDate:             pubDate,
		UpdatedDate:         updated,
		Comments:            c.String("comments"),
		Copyright:           c.String("copyright"),
		TTL:                 c.Int("ttl"),
	}

	if u := c.String("enclosure-url"); u != "" {
		item.Enclosure = &model.Enclosure{
			URL:      u,
			Length:   c.String("enclosure-length"),
			MIMEType: c.String("enclosure-type"),
		}
	}

	return item, nil
}

func addItem(c *cli.Context) error {
	item, err := itemFromFlags(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	ch, err := lookupChannel(c, s, "feedgen item add <slug> --title ...")
	if err != nil {
		return err
	}
	item.ChannelID = ch.ID

	if err := s.SaveItem(item); err != nil {
		if model.IsValidation(err) {
			return cli.Exit(err.Error(), ExitUsageError)
		}
		return cli.Exit(fmt.Sprintf("Failed to save item: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
		"item":    item,
	})
}

func listItems(c *cli.Context) error {
	opts, err := store.BuildQueryOptions(c.Int("limit"), c.Int("offset"), c.String("since"), c.String("category"))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	ch, err := lookupChannel(c, s, "feedgen item list <slug>")
	if err != nil {
		return err
	}

	items, err := s.GetItems(c.Context, ch.ID, opts)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to get items: %v", err), ExitDataError)
	}

	if c.Bool("table") {
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			date := ""
			if latest := item.LatestDate(); !latest.IsZero() {
				date = latest.Format("2006-01-02 15:04")
			}
			title := item.Title
			if title == "" {
				title = item.Description
			}
			rows = append(rows, []string{strconv.FormatInt(item.ID, 10), date, title, item.Link})
		}
		return writeTable(os.Stdout, []string{"ID", "DATE", "TITLE", "LINK"}, rows)
	}

	if items == nil {
		items = []*model.Item{}
	}
	return outputJSON(items)
}

func removeItem(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: feedgen item remove <item-id>", ExitUsageError)
	}
	id, err := parseID(c.Args().Get(0), "item")
	if err != nil {
		return err
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	if err := s.DeleteItem(id); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return cli.Exit(fmt.Sprintf("Item not found: %d", id), ExitDataError)
		}
		return cli.Exit(fmt.Sprintf("Failed to delete item: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
		"id":      id,
	})
}
