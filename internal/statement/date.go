package statement

import (
	"strings"
	"time"

	"github.com/mkfin/banking-backend/internal/errs"
)

// Formats seen in Macedonian bank exports, day-first whenever
// ambiguous: "01/11/2025" is the 1st of November.
var dateFormats = []string{
	"02.01.2006",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
}

// ParseDate parses a statement date cell, time of day discarded.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, raw); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errs.NewParseError("unparseable date " + raw)
}
