package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/robertmeta/feedgen/feed"
	"github.com/robertmeta/feedgen/model"
	"github.com/robertmeta/feedgen/store"
	"github.com/urfave/cli/v2"
)

func buildFeed(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: feedgen build <slug> [--format rss|atom] [--output file]", ExitUsageError)
	}
	slug := c.Args().Get(0)

	format, err := feed.ParseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}
	opts, err := store.BuildQueryOptions(c.Int("limit"), c.Int("offset"), c.String("since"), c.String("category"))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	ch, err := s.FeedChannel(c.Context, slug)
	if errors.Is(err, store.ErrChannelNotFound) {
		return cli.Exit(fmt.Sprintf("Channel not found: %s", slug), ExitDataError)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to get channel: %v", err), ExitDataError)
	}

	cursor, err := s.Items(c.Context, ch.ID, opts)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to query items: %v", err), ExitDataError)
	}
	defer cursor.Close()

	doc, err := feed.New(*ch, format, feed.WithItems(cursor))
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	output := c.String("output")
	dir := os.TempDir()
	if output != "" {
		dir = filepath.Dir(output)
	}
	tmp, err := writeTemp(c, doc, dir, c.String("encoding"))
	if err != nil {
		if model.IsValidation(err) {
			return cli.Exit(err.Error(), ExitDataError)
		}
		return cli.Exit(fmt.Sprintf("Failed to write feed: %v", err), ExitGeneralError)
	}
	defer os.Remove(tmp)

	var report *feed.Report
	if c.Bool("check") {
		report, err = checkFile(tmp)
		if err != nil {
			return cli.Exit(err.Error(), ExitDataError)
		}
	}

	if output == "" {
		if err := copyFile(os.Stdout, tmp); err != nil {
			return cli.Exit(fmt.Sprintf("Failed to write feed: %v", err), ExitGeneralError)
		}
		if report != nil {
			// stdout carries the document
			return writeJSON(os.Stderr, report)
		}
		return nil
	}

	if err := os.Rename(tmp, output); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to write %s: %v", output, err), ExitGeneralError)
	}

	result := map[string]interface{}{
		"success": true,
		"output":  output,
		"format":  format.String(),
	}
	if report != nil {
		result["report"] = report
	}
	return outputJSON(result)
}

// writeTemp writes doc to a new file in dir and returns its path. The file
// is removed again when writing fails.
func writeTemp(c *cli.Context, doc *feed.Document, dir, encoding string) (string, error) {
	f, err := os.CreateTemp(dir, ".feedgen-*.xml")
	if err != nil {
		return "", err
	}

	err = doc.WriteContext(c.Context, f, encoding)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

func checkFile(path string) (*feed.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return feed.NewChecker().Check(f)
}

func checkFeed(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: feedgen check <file>", ExitUsageError)
	}

	report, err := checkFile(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	return outputJSON(report)
}
