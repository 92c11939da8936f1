// Package models provides domain models for the analysis agent.
package models

import (
	"time"
)

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
)

// Timeframe is the interval a candle covers.
type Timeframe string

const (
	Timeframe1Min  Timeframe = "1min"
	Timeframe5Min  Timeframe = "5min"
	Timeframe15Min Timeframe = "15min"
	Timeframe1Hour Timeframe = "1hour"
	Timeframe1Day  Timeframe = "1day"
)

// Duration returns the wall-clock span of the timeframe, or zero if unknown.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case Timeframe1Min:
		return time.Minute
	case Timeframe5Min:
		return 5 * time.Minute
	case Timeframe15Min:
		return 15 * time.Minute
	case Timeframe1Hour:
		return time.Hour
	case Timeframe1Day:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Candle represents OHLC data for a time period. Volume is optional.
type Candle struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Open      float64   `json:"open" yaml:"open"`
	High      float64   `json:"high" yaml:"high"`
	Low       float64   `json:"low" yaml:"low"`
	Close     float64   `json:"close" yaml:"close"`
	Volume    int64     `json:"volume,omitempty" yaml:"volume,omitempty"`
}

// Session is an ordered candle sequence for one instrument.
type Session struct {
	Symbol    string
	Exchange  Exchange
	Timeframe Timeframe
	Candles   []Candle
}

// First returns the reference candle of the session.
func (s Session) First() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[0], true
}

// Last returns the most recent candle of the session.
func (s Session) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}
