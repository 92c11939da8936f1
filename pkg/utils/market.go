package utils

import (
	"time"
)

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// MarketStatus represents the cash-market session state.
type MarketStatus string

const (
	MarketPreOpen MarketStatus = "PRE_OPEN"
	MarketOpen    MarketStatus = "OPEN"
	MarketClosed  MarketStatus = "CLOSED"
)

// PreOpenDuration is the call-auction window before the 09:15 open.
const PreOpenDuration = 15 * time.Minute

// SessionOpen returns 09:15 IST on the calendar day of t in IST.
func SessionOpen(t time.Time) time.Time {
	d := t.In(IndiaLocation)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 15, 0, 0, IndiaLocation)
}

// SessionClose returns 15:30 IST on the calendar day of t in IST.
func SessionClose(t time.Time) time.Time {
	d := t.In(IndiaLocation)
	return time.Date(d.Year(), d.Month(), d.Day(), 15, 30, 0, 0, IndiaLocation)
}

// MarketStatusAt returns the market status at t.
func MarketStatusAt(t time.Time) MarketStatus {
	now := t.In(IndiaLocation)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return MarketClosed
	}

	open := SessionOpen(now)
	switch {
	case !now.Before(open.Add(-PreOpenDuration)) && now.Before(open):
		return MarketPreOpen
	case !now.Before(open) && now.Before(SessionClose(now)):
		return MarketOpen
	default:
		return MarketClosed
	}
}

// GetMarketStatus returns the current market status.
func GetMarketStatus() MarketStatus {
	return MarketStatusAt(time.Now())
}

// IsMarketOpen returns true if the market is currently open.
func IsMarketOpen() bool {
	return GetMarketStatus() == MarketOpen
}
