package utils

import "time"

// NowRFC3339 returns the current UTC time in RFC3339 format. Timestamps
// that feed sort keys must be UTC so they collate correctly.
func NowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ParseRFC3339 parses a time string in RFC3339 format
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
