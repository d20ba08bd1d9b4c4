package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robertmeta/feedgen/opml"
	"github.com/robertmeta/feedgen/store"
	"github.com/urfave/cli/v2"
)

func importOPML(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: feedgen import <opml-file>", ExitUsageError)
	}

	file, err := os.Open(c.Args().Get(0))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to open OPML file: %v", err), ExitDataError)
	}
	defer file.Close()

	channels, err := opml.Parse(file)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to parse OPML: %v", err), ExitDataError)
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	imported := 0
	skipped := 0
	var failures []string

	for _, ch := range channels {
		_, err := s.GetChannelBySlug(c.Context, ch.Slug)
		if err == nil {
			skipped++
			failures = append(failures, fmt.Sprintf("%s: already exists", ch.Slug))
			continue
		}
		if !errors.Is(err, store.ErrChannelNotFound) {
			return cli.Exit(fmt.Sprintf("Failed to look up %s: %v", ch.Slug, err), ExitDataError)
		}

		if ch.GUID == "" {
			ch.GUID = "urn:uuid:" + uuid.New().String()
		}
		if err := s.SaveChannel(ch); err != nil {
			skipped++
			failures = append(failures, fmt.Sprintf("%s: %v", ch.Slug, err))
			continue
		}
		imported++
	}

	return outputJSON(map[string]interface{}{
		"success":  true,
		"imported": imported,
		"skipped":  skipped,
		"total":    len(channels),
		"errors":   failures,
	})
}

func exportOPML(c *cli.Context) error {
	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	channels, err := s.GetAllChannels()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to get channels: %v", err), ExitDataError)
	}

	outputPath := c.String("output")
	var writer io.Writer = os.Stdout
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to create output file: %v", err), ExitDataError)
		}
		defer file.Close()
		writer = file
	}

	if err := opml.Generate(writer, channels, time.Now()); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to generate OPML: %v", err), ExitDataError)
	}

	if outputPath != "" {
		return outputJSON(map[string]interface{}{
			"success": true,
			"file":    outputPath,
			"count":   len(channels),
		})
	}
	return nil
}
