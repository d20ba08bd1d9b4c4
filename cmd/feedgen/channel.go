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

func channelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Channel title", Required: true},
		&cli.StringFlag{Name: "link", Usage: "Site URL of the channel", Required: true},
		&cli.StringFlag{Name: "description", Usage: "Channel description", Required: true},
		&cli.StringFlag{Name: "language", Usage: "Language tag (e.g., en-us)"},
		&cli.StringFlag{Name: "subtitle", Usage: "Atom subtitle"},
		&cli.StringFlag{Name: "feed-url", Usage: "URL the feed is published at"},
		&cli.StringFlag{Name: "author-name", Usage: "Author name"},
		&cli.StringFlag{Name: "author-email", Usage: "Author email"},
		&cli.StringFlag{Name: "author-link", Usage: "Author URL"},
		&cli.StringSliceFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category (repeatable)"},
		&cli.StringFlag{Name: "copyright", Usage: "Copyright notice"},
		&cli.StringFlag{Name: "guid", Usage: "Atom feed id (default: a new urn:uuid)"},
		&cli.IntFlag{Name: "ttl", Usage: "Minutes a reader may cache the feed"},
		&cli.StringFlag{Name: "updated", Usage: "Last update time (RFC 3339 with offset)"},
	}
}

func addChannel(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: feedgen channel add <slug> --title --link --description", ExitUsageError)
	}

	updated, err := model.ParseTime(model.ScopeChannel, "updated_at", c.String("updated"))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	guid := c.String("guid")
	if guid == "" {
		guid = "urn:uuid:" + uuid.New().String()
	}

	channel := &model.Channel{
		Slug:        c.Args().Get(0),
		Title:       c.String("title"),
		Link:        c.String("link"),
		Description: c.String("description"),
		Language:    c.String("language"),
		Subtitle:    c.String("subtitle"),
		FeedURL:     c.String("feed-url"),
		AuthorName:  c.String("author-name"),
		AuthorEmail: c.String("author-email"),
		AuthorLink:  c.String("author-link"),
		Categories:  c.StringSlice("category"),
		Copyright:   c.String("copyright"),
		GUID:        guid,
		TTL:         c.Int("ttl"),
		UpdatedAt:   updated,
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	if err := s.SaveChannel(channel); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to save channel: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
		"channel": channel,
	})
}

func listChannels(c *cli.Context) error {
	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	channels, err := s.GetAllChannels()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to get channels: %v", err), ExitDataError)
	}

	if c.Bool("table") {
		rows := make([][]string, 0, len(channels))
		for _, ch := range channels {
			rows = append(rows, []string{strconv.FormatInt(ch.ID, 10), ch.Slug, ch.Title, ch.Link})
		}
		return writeTable(os.Stdout, []string{"ID", "SLUG", "TITLE", "LINK"}, rows)
	}

	if channels == nil {
		channels = []*model.Channel{}
	}
	return outputJSON(channels)
}

// lookupChannel resolves the slug argument, mapping a missing channel to a
// data error.
func lookupChannel(c *cli.Context, s *store.Store, usage string) (*model.Channel, error) {
	if c.NArg() < 1 {
		return nil, cli.Exit("Usage: "+usage, ExitUsageError)
	}
	slug := c.Args().Get(0)

	ch, err := s.GetChannelBySlug(c.Context, slug)
	if errors.Is(err, store.ErrChannelNotFound) {
		return nil, cli.Exit(fmt.Sprintf("Channel not found: %s", slug), ExitDataError)
	}
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Failed to get channel: %v", err), ExitDataError)
	}
	return ch, nil
}

func showChannel(c *cli.Context) error {
	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	ch, err := lookupChannel(c, s, "feedgen channel show <slug>")
	if err != nil {
		return err
	}

	latest, err := s.LatestItemDate(c.Context, ch.ID)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	result := map[string]interface{}{
		"channel": ch,
	}
	if !latest.IsZero() {
		result["latest_item"] = latest
	}
	return outputJSON(result)
}

func removeChannel(c *cli.Context) error {
	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	ch, err := lookupChannel(c, s, "feedgen channel remove <slug>")
	if err != nil {
		return err
	}

	if err := s.DeleteChannel(ch.ID); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to delete channel: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
		"slug":    ch.Slug,
	})
}
