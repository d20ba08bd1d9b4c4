package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{
			name:     "12 hours",
			input:    "12h",
			expected: 12 * time.Hour,
		},
		{
			name:     "7 days",
			input:    "7d",
			expected: 7 * 24 * time.Hour,
		},
		{
			name:     "2 weeks",
			input:    "2w",
			expected: 14 * 24 * time.Hour,
		},
		{
			name:     "3 months (approximated as 90 days)",
			input:    "3m",
			expected: 90 * 24 * time.Hour,
		},
		{
			name:     "1 year (approximated as 365 days)",
			input:    "1y",
			expected: 365 * 24 * time.Hour,
		},
		{
			name:    "invalid format - no number",
			input:   "d",
			wantErr: true,
		},
		{
			name:    "invalid format - no unit",
			input:   "7",
			wantErr: true,
		},
		{
			name:    "invalid unit",
			input:   "7x",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "negative number",
			input:   "-7d",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestSinceToUnixTime(t *testing.T) {
	now := time.Date(2022, 10, 20, 12, 0, 0, 0, time.UTC)

	got, err := SinceToUnixTime("1w", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 10, 13, 12, 0, 0, 0, time.UTC).Unix(), got)

	_, err = SinceToUnixTime("invalid", now)
	assert.Error(t, err)
}

func TestBuildQueryOptions(t *testing.T) {
	tests := []struct {
		name        string
		limit       int
		offset      int
		since       string
		category    string
		expectError bool
		checkOpts   func(t *testing.T, opts QueryOptions)
	}{
		{
			name:   "basic pagination",
			limit:  20,
			offset: 40,
			checkOpts: func(t *testing.T, opts QueryOptions) {
				assert.Equal(t, 20, opts.Limit)
				assert.Equal(t, 40, opts.Offset)
				assert.Nil(t, opts.SinceTime)
			},
		},
		{
			name:  "since filter",
			since: "7d",
			checkOpts: func(t *testing.T, opts QueryOptions) {
				require.NotNil(t, opts.SinceTime)
				// Should be approximately 7 days ago
				expected := time.Now().Add(-7 * 24 * time.Hour).Unix()
				assert.InDelta(t, expected, *opts.SinceTime, 2)
			},
		},
		{
			name:     "category filter",
			category: "golang",
			checkOpts: func(t *testing.T, opts QueryOptions) {
				assert.Equal(t, "golang", opts.Category)
			},
		},
		{
			name:        "invalid since format",
			since:       "invalid",
			expectError: true,
		},
		{
			name:        "negative limit",
			limit:       -1,
			expectError: true,
		},
		{
			name:        "negative offset",
			offset:      -5,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := BuildQueryOptions(tt.limit, tt.offset, tt.since, tt.category)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				if tt.checkOpts != nil {
					tt.checkOpts(t, opts)
				}
			}
		})
	}
}
