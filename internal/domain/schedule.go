package domain

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// StartsAt combines a calendar day and a local HH:MM clock into an instant.
func StartsAt(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date/time %q %q", ErrValidation, date, clock)
	}
	return t, nil
}

// ParseClock returns minutes since midnight for an HH:MM string.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time %q", ErrValidation, clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// CanonicalClock normalises a clock to zero-padded HH:MM, so "9:00" and
// "09:00" store and compare the same.
func CanonicalClock(clock string) (string, error) {
	m, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	return FormatClock(m), nil
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
