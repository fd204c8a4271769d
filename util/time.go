package util

import "time"

// ParseTime parses a string like "02.01.2006 15:04" in the local time zone.
// The empty string yields the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("02.01.2006 15:04", s, time.Local)
}

// FormatTime is the inverse of ParseTime.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02.01.2006 15:04")
}
