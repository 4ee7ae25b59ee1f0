package utils

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30). MCX trading hours and
// all contract expiries are expressed in IST.
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// ToIST converts a time.Time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// FormatDateTimeIST formats a time as a human-readable IST timestamp.
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("02 Jan 2006 15:04:05 IST")
}

// MarketOpenTime returns the MCX bullion session opening time (9:00 AM IST)
// for a given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(IST)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, IST)
}

// MarketCloseTime returns the MCX bullion session closing time
// (11:30 PM IST) for a given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(IST)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 30, 0, 0, IST)
}

// IsMarketOpen checks if the MCX commodity session is currently open.
func IsMarketOpen() bool {
	return IsMarketOpenAt(NowIST())
}

// IsMarketOpenAt checks if the MCX session would be open at the given time.
func IsMarketOpenAt(t time.Time) bool {
	t = t.In(IST)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}

	open := MarketOpenTime(t)
	close := MarketCloseTime(t)

	return !t.Before(open) && !t.After(close)
}

// MarketStatus returns a human-readable market status string.
func MarketStatus() string {
	if IsMarketOpen() {
		return "OPEN"
	}
	return "CLOSED"
}
