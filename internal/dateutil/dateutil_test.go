package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// Every day of a leap year and a non-leap year survives the
	// key -> display -> key round trip.
	for _, year := range []int{2024, 2025} {
		day := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		for day.Year() == year {
			key := Key(day)

			display, err := KeyToDisplay(key, loc)
			require.NoError(t, err)

			back, err := DisplayToKey(display, loc)
			require.NoError(t, err)
			assert.Equal(t, key, back, "round trip for %s", key)

			day = day.AddDate(0, 0, 1)
		}
	}
}

func TestDisplayFormat(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	d, err := ParseKey("2025-02-14", loc)
	require.NoError(t, err)
	assert.Equal(t, "Fri Feb 14 2025", Display(d))

	// Single-digit days keep the zero padding.
	d, err = ParseKey("2025-02-07", loc)
	require.NoError(t, err)
	assert.Equal(t, "Fri Feb 07 2025", Display(d))
}

func TestParseKeyRejectsGarbage(t *testing.T) {
	loc := time.UTC
	for _, bad := range []string{"", "2025-2-14", "14-02-2025", "not a date"} {
		_, err := ParseKey(bad, loc)
		assert.Error(t, err, "key %q", bad)
	}
}

func TestIsWeekend(t *testing.T) {
	loc := time.UTC
	cases := map[string]bool{
		"2025-02-14": true,  // Friday
		"2025-02-15": true,  // Saturday
		"2025-02-16": false, // Sunday
		"2025-02-17": false, // Monday
		"2025-02-20": false, // Thursday
	}
	for key, want := range cases {
		d, err := ParseKey(key, loc)
		require.NoError(t, err)
		assert.Equal(t, want, IsWeekend(d), key)
	}
}

func TestSameDay(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	a := time.Date(2025, 2, 14, 0, 0, 0, 0, loc)
	b := time.Date(2025, 2, 14, 23, 59, 0, 0, loc)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.AddDate(0, 0, 1)))
}
