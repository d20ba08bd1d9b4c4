package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTable(t *testing.T) {
	var buf strings.Builder
	err := writeTable(&buf, []string{"ID", "TITLE", "LINK"}, [][]string{
		{"1", "Hello", "http://example.com/1"},
		{"22", "日本語", "http://example.com/22"},
	})
	require.NoError(t, err)

	expected := "" +
		"ID  TITLE   LINK\n" +
		"1   Hello   http://example.com/1\n" +
		"22  日本語  http://example.com/22\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteTable_TruncatesAndFlattens(t *testing.T) {
	var buf strings.Builder
	long := strings.Repeat("x", 100)
	require.NoError(t, writeTable(&buf, []string{"A", "B"}, [][]string{{"multi\nline  text", long}}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "multi line text  "))
	assert.True(t, strings.HasSuffix(lines[1], "…"))
	assert.Less(t, len([]rune(lines[1])), 100)
}
