package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"noisemap/backend/libs/laeq"
)

const keyPrefix = "laeq:report:"

// ReportKey identifies a report by cell, window and calendar date. Hourly1h reports have no
// date, so the reference time truncated to the minute takes its place.
func ReportKey(cellID string, w laeq.Window, date string, now time.Time) string {
	when := strings.TrimSpace(date)
	if w == laeq.Hourly1h {
		when = now.UTC().Truncate(time.Minute).Format(time.RFC3339)
	}
	return keyPrefix + makeKey(strings.TrimSpace(cellID), string(w), when)
}

func makeKey(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}
