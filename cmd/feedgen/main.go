package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/robertmeta/feedgen/store"
	"github.com/urfave/cli/v2"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "feedgen",
		Usage:   "Publish RSS 2.0 and Atom 1.0 feeds from a channel database",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Value:   getDefaultDBPath(),
				Usage:   "Database file path, or DSN for the pgx driver",
				EnvVars: []string{"FEEDGEN_DB"},
			},
			&cli.StringFlag{
				Name:    "driver",
				Value:   store.DriverSQLite,
				Usage:   "Database driver (sqlite or pgx)",
				EnvVars: []string{"FEEDGEN_DRIVER"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "channel",
				Usage: "Manage channels",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Add a new channel",
						ArgsUsage: "<slug>",
						Flags:     channelFlags(),
						Action:    addChannel,
					},
					{
						Name:   "list",
						Usage:  "List all channels",
						Flags:  []cli.Flag{tableFlag()},
						Action: listChannels,
					},
					{
						Name:      "show",
						Usage:     "Show channel details",
						ArgsUsage: "<slug>",
						Action:    showChannel,
					},
					{
						Name:      "remove",
						Usage:     "Remove a channel and its items",
						ArgsUsage: "<slug>",
						Action:    removeChannel,
					},
				},
			},
			{
				Name:  "item",
				Usage: "Manage items",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Add an item to a channel",
						ArgsUsage: "<slug>",
						Flags:     itemFlags(),
						Action:    addItem,
					},
					{
						Name:      "list",
						Usage:     "List a channel's items, newest first",
						ArgsUsage: "<slug>",
						Flags:     append(queryFlags(), tableFlag()),
						Action:    listItems,
					},
					{
						Name:      "remove",
						Usage:     "Remove an item",
						ArgsUsage: "<item-id>",
						Action:    removeItem,
					},
				},
			},
			{
				Name:      "build",
				Usage:     "Write a channel's feed document",
				ArgsUsage: "<slug>",
				Flags: append(queryFlags(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "rss",
						Usage:   "Feed format (rss or atom)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
					&cli.StringFlag{
						Name:  "encoding",
						Value: "utf-8",
						Usage: "Character encoding of the document",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Parse the written document back and report what a reader sees",
					},
				),
				Action: buildFeed,
			},
			{
				Name:      "check",
				Usage:     "Parse a feed document and report what a reader sees",
				ArgsUsage: "<file>",
				Action:    checkFeed,
			},
			{
				Name:      "import",
				Usage:     "Import channels from OPML file",
				ArgsUsage: "<opml-file>",
				Action:    importOPML,
			},
			{
				Name:  "export",
				Usage: "Export channels to OPML file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				},
				Action: exportOPML,
			},
			{
				Name:  "serve",
				Usage: "Serve feeds over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "YAML configuration file",
						Required: true,
						EnvVars:  []string{"FEEDGEN_CONFIG"},
					},
				},
				Action: serve,
			},
		},
	}
}

func tableFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "table",
		Usage: "Print an aligned table instead of JSON",
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"l"},
			Usage:   "Maximum number of items (0 for all)",
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Offset for pagination",
		},
		&cli.StringFlag{
			Name:    "since",
			Aliases: []string{"s"},
			Usage:   "Only items since duration (e.g., 12h, 7d, 2w, 3m, 1y)",
		},
		&cli.StringFlag{
			Name:  "category",
			Usage: "Only items in category",
		},
	}
}

func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "feedgen.db"
	}
	return filepath.Join(home, ".config", "feedgen", "feedgen.db")
}

func getStore(c *cli.Context) (*store.Store, error) {
	driver := c.String("driver")
	dsn := c.String("db")

	if driver == store.DriverSQLite && dsn != ":memory:" {
		// Create directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	s, err := store.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return s, nil
}

func outputJSON(v interface{}) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, cli.Exit(fmt.Sprintf("Invalid %s ID: %s", what, s), ExitUsageError)
	}
	return id, nil
}
