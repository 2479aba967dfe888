package dateutil

import (
	"fmt"
	"time"
)

const (
	// KeyLayout is the canonical calendar-date key used by availability
	// records and slot inventory: zero-padded YYYY-MM-DD in local time.
	KeyLayout = "2006-01-02"

	// DisplayLayout is the long form shown to guests and stored on older
	// booking exports ("Fri Feb 14 2025").
	DisplayLayout = "Mon Jan 02 2006"
)

// ParseKey parses a YYYY-MM-DD key in the given location. The returned
// time is midnight local; only the calendar date is meaningful.
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(KeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// Key renders the canonical YYYY-MM-DD form of a date.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// Display renders the long guest-facing form of a date.
func Display(t time.Time) string {
	return t.Format(DisplayLayout)
}

// ParseDisplay parses the long form back into a date in the given
// location. Both encodings of the same day must stay convertible.
func ParseDisplay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DisplayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid display date %q: %w", s, err)
	}
	return t, nil
}

// KeyToDisplay converts a YYYY-MM-DD key to the long form.
func KeyToDisplay(key string, loc *time.Location) (string, error) {
	t, err := ParseKey(key, loc)
	if err != nil {
		return "", err
	}
	return Display(t), nil
}

// DisplayToKey converts the long form back to a YYYY-MM-DD key.
func DisplayToKey(s string, loc *time.Location) (string, error) {
	t, err := ParseDisplay(s, loc)
	if err != nil {
		return "", err
	}
	return Key(t), nil
}

// IsWeekend reports whether the date falls on the weekend pricing tier,
// which for tour purposes means Friday or Saturday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

// SameDay reports whether two instants fall on the same calendar date in
// the location of a.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// Truncate drops the time-of-day in the given location, keeping the date.
func Truncate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
