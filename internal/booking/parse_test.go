package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parseNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func TestParseRequestedDateTimeExplicitFormats(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"Monday, June 16, 2025 at 2:00 PM", time.Date(2025, time.June, 16, 14, 0, 0, 0, time.UTC)},
		{"June 16, 2025 at 2:00 PM", time.Date(2025, time.June, 16, 14, 0, 0, 0, time.UTC)},
		{"2025-06-16 14:00", time.Date(2025, time.June, 16, 14, 0, 0, 0, time.UTC)},
		{"06/16/2025 14:00", time.Date(2025, time.June, 16, 14, 0, 0, 0, time.UTC)},
		{"06/16/2025 2:00 PM", time.Date(2025, time.June, 16, 14, 0, 0, 0, time.UTC)},
		{"2025-06-16", time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC)},
		{"06/16/2025", time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC)},
		{"June 16, 2025", time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got, err := ParseRequestedDateTime(tc.in, parseNow)
		require.NoError(t, err, tc.in)
		assert.True(t, got.Equal(tc.want), "%s -> %s", tc.in, got)
	}
}

func TestParseRequestedDateTimeNaturalLanguage(t *testing.T) {
	// Month still ahead this year: stays in the current year, 9 AM default.
	got, err := ParseRequestedDateTime("July 3", parseNow)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, time.July, 3, 9, 0, 0, 0, time.UTC)))

	// Month already passed: rolls to next year.
	got, err = ParseRequestedDateTime("April 1", parseNow)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)))

	// Same month, earlier day: also next year.
	got, err = ParseRequestedDateTime("June 9", parseNow)
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())

	got, err = ParseRequestedDateTime("Dec 3rd at 2 pm", parseNow)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, time.December, 3, 14, 0, 0, 0, time.UTC)))

	got, err = ParseRequestedDateTime("sept 12 at 10:30 am", parseNow)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, time.September, 12, 10, 30, 0, 0, time.UTC)))

	got, err = ParseRequestedDateTime("august 20 at 12 pm", parseNow)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Hour())
}

func TestParseRequestedDateTimeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "whenever works", "the 5th", "Blursday 40"} {
		_, err := ParseRequestedDateTime(in, parseNow)
		assert.ErrorIs(t, err, ErrUnparseableDateTime, in)
	}
}

func TestDisplayFormatRoundTrips(t *testing.T) {
	slot := time.Date(2025, time.June, 16, 14, 0, 0, 0, time.UTC)
	spoken := FormatDateTime(slot)
	assert.Equal(t, "Monday, June 16, 2025 at 2:00 PM", spoken)

	parsed, err := ParseRequestedDateTime(spoken, parseNow)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(slot))
}
