package models

import (
	"fmt"
	"time"
)

// DateKeyLayout is the canonical layout of a DateKey.
const DateKeyLayout = "2006-01-02"

// DateKey identifies a calendar day as YYYY-MM-DD. It is built from the
// year, month and day components of a time as read in that time's location,
// so two instants on the same local calendar day always share a key.
type DateKey string

// KeyOf returns the DateKey of t in t's own location.
func KeyOf(t time.Time) DateKey {
	return DateKey(fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day()))
}

// ParseDateKey validates s as a YYYY-MM-DD calendar date.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return KeyOf(t), nil
}

// Time returns midnight of the day in loc.
func (k DateKey) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateKeyLayout, string(k), loc)
}

// String implements fmt.Stringer.
func (k DateKey) String() string {
	return string(k)
}

// Today returns the DateKey of now in loc.
func Today(now time.Time, loc *time.Location) DateKey {
	if loc != nil {
		now = now.In(loc)
	}
	return KeyOf(now)
}
