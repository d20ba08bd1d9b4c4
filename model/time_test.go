package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "rfc3339 utc",
			input:    "2022-10-20T12:46:17Z",
			expected: time.Date(2022, 10, 20, 12, 46, 17, 0, time.UTC),
		},
		{
			name:     "rfc3339 with offset",
			input:    "2022-10-20T14:46:17+02:00",
			expected: time.Date(2022, 10, 20, 12, 46, 17, 0, time.UTC),
		},
		{
			name:     "rfc3339 with fraction",
			input:    "2022-10-20T12:46:17.250Z",
			expected: time.Date(2022, 10, 20, 12, 46, 17, 250000000, time.UTC),
		},
		{
			name:     "rfc2822",
			input:    "Thu, 20 Oct 2022 12:46:17 +0000",
			expected: time.Date(2022, 10, 20, 12, 46, 17, 0, time.UTC),
		},
		{
			name:     "rfc2822 single digit day",
			input:    "Sun, 2 Oct 2022 12:46:17 -0500",
			expected: time.Date(2022, 10, 2, 17, 46, 17, 0, time.UTC),
		},
		{
			name:  "empty is absent",
			input: "",
		},
		{
			name:    "naive datetime",
			input:   "2022-10-20T12:46:17",
			wantErr: true,
		},
		{
			name:    "naive date",
			input:   "2022-10-20",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "yesterday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(ItemScope(0), "pubdate", tt.input)
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "pubdate", verr.Field)
				assert.Equal(t, "item 0", verr.Scope)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "want %v, got %v", tt.expected, got)
		})
	}
}

func TestParseTime_NaiveMessage(t *testing.T) {
	_, err := ParseTime(ScopeChannel, "updated_at", "2022-10-20 12:46:17")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no timezone offset")
}
