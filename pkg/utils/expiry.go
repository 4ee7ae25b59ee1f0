package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// monthAbbr maps the 3-letter month abbreviation used by the MCX instrument
// master to a calendar month.
var monthAbbr = map[string]time.Month{
	"JAN": time.January,
	"FEB": time.February,
	"MAR": time.March,
	"APR": time.April,
	"MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AUG": time.August,
	"SEP": time.September,
	"OCT": time.October,
	"NOV": time.November,
	"DEC": time.December,
}

// ParseExpiry parses the compact contract expiry encoding used by the broker
// instrument master: DD + 3-letter month + year, e.g. "05AUG2025". Two-digit
// years ("05AUG25") are accepted and resolved into the 2000s. The returned
// date is midnight IST on the expiry day.
func ParseExpiry(expiry string) (time.Time, error) {
	s := strings.ToUpper(strings.TrimSpace(expiry))
	if len(s) < 7 {
		return time.Time{}, fmt.Errorf("expiry %q: too short", expiry)
	}

	day, err := strconv.Atoi(s[:2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("expiry %q: bad day", expiry)
	}

	month, ok := monthAbbr[s[2:5]]
	if !ok {
		return time.Time{}, fmt.Errorf("expiry %q: bad month", expiry)
	}

	year, err := strconv.Atoi(s[5:])
	if err != nil {
		return time.Time{}, fmt.Errorf("expiry %q: bad year", expiry)
	}
	if year < 100 {
		year += 2000
	}

	return time.Date(year, month, day, 0, 0, 0, 0, IST), nil
}
