// Package analysis provides the types shared by the level, RSI, position and
// signal computations.
package analysis

import (
	"time"
)

// Signal represents the trading signal derived from levels and RSI.
type Signal string

const (
	StrongBuy  Signal = "STRONG_BUY"
	Buy        Signal = "BUY"
	Neutral    Signal = "NEUTRAL"
	Sell       Signal = "SELL"
	StrongSell Signal = "STRONG_SELL"
)

// IsBuy reports whether the signal is on the long side.
func (s Signal) IsBuy() bool {
	return s == StrongBuy || s == Buy
}

// IsSell reports whether the signal is on the short side.
func (s Signal) IsSell() bool {
	return s == StrongSell || s == Sell
}

// PositionLabel classifies price relative to the nearest levels.
type PositionLabel string

const (
	AtResistance   PositionLabel = "AT_RESISTANCE"
	AtSupport      PositionLabel = "AT_SUPPORT"
	NearResistance PositionLabel = "NEAR_RESISTANCE"
	NearSupport    PositionLabel = "NEAR_SUPPORT"
	// PositionNeutral is part of the output vocabulary but the classifier
	// never produces it.
	PositionNeutral PositionLabel = "NEUTRAL"
)

// IsAtLevel reports whether price sits on a level.
func (p PositionLabel) IsAtLevel() bool {
	return p == AtResistance || p == AtSupport
}

// RSICondition buckets the current RSI against the thresholds.
type RSICondition string

const (
	Overbought         RSICondition = "OVERBOUGHT"
	Oversold           RSICondition = "OVERSOLD"
	SlightlyOverbought RSICondition = "SLIGHTLY_OVERBOUGHT"
	SlightlyOversold   RSICondition = "SLIGHTLY_OVERSOLD"
	RSINeutral         RSICondition = "NEUTRAL"
)

// IsExtreme reports whether RSI is beyond a threshold.
func (c RSICondition) IsExtreme() bool {
	return c == Overbought || c == Oversold
}

// LevelCount is the number of rungs on each side of the ladder.
const LevelCount = 4

// LevelSet holds the resistance and support ladder derived from one
// reference candle. Resistance is strictly increasing, Support strictly
// decreasing.
type LevelSet struct {
	ReferenceHigh float64             `json:"reference_high" yaml:"reference_high"`
	ReferenceLow  float64             `json:"reference_low" yaml:"reference_low"`
	Resistance    [LevelCount]float64 `json:"resistance" yaml:"resistance"`
	Support       [LevelCount]float64 `json:"support" yaml:"support"`
}

// Level is a single named rung of the ladder, used by chart overlays.
type Level struct {
	Name  string    `json:"name" yaml:"name"`
	Price float64   `json:"price" yaml:"price"`
	Type  LevelType `json:"type" yaml:"type"`
}

// LevelType represents the type of price level.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

// Levels returns the eight level prices from the highest resistance
// (R4) down to the lowest support (S4).
func (l LevelSet) Levels() []float64 {
	out := make([]float64, 0, 2*LevelCount)
	for i := LevelCount - 1; i >= 0; i-- {
		out = append(out, l.Resistance[i])
	}
	return append(out, l.Support[:]...)
}

// Ladder names the prices from Levels for chart overlays. Resistance
// rungs are A1..A4 and support rungs B1..B4.
func (l LevelSet) Ladder() []Level {
	out := make([]Level, 0, 2*LevelCount)
	for i, price := range l.Levels() {
		lvl := Level{Price: price, Type: LevelResistance}
		if i < LevelCount {
			lvl.Name = "A" + string(rune('0'+LevelCount-i))
		} else {
			lvl.Name = "B" + string(rune('1'+i-LevelCount))
			lvl.Type = LevelSupport
		}
		out = append(out, lvl)
	}
	return out
}

// RSIPoint is one emitted RSI value.
type RSIPoint struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Value     float64   `json:"value" yaml:"value"`
}

// PricePosition locates a price relative to a LevelSet.
type PricePosition struct {
	Price             float64       `json:"price" yaml:"price"`
	NearestSupport    float64       `json:"nearest_support" yaml:"nearest_support"`
	NearestResistance float64       `json:"nearest_resistance" yaml:"nearest_resistance"`
	Label             PositionLabel `json:"position" yaml:"position"`
}

// Thresholds are the RSI overbought/oversold bounds.
type Thresholds struct {
	Overbought float64 `json:"overbought" yaml:"overbought"`
	Oversold   float64 `json:"oversold" yaml:"oversold"`
}

// Params are the caller-supplied analysis parameters. The core accepts
// any values; range checks belong to the config layer.
type Params struct {
	Period     int `json:"period" yaml:"period"`
	Overbought int `json:"overbought" yaml:"overbought"`
	Oversold   int `json:"oversold" yaml:"oversold"`
	Smoothing  int `json:"smoothing" yaml:"smoothing"`
}

// DefaultParams returns the standard 14-period 70/30 configuration.
func DefaultParams() Params {
	return Params{
		Period:     14,
		Overbought: 70,
		Oversold:   30,
		Smoothing:  1,
	}
}

// Thresholds returns the RSI bounds as floats.
func (p Params) Thresholds() Thresholds {
	return Thresholds{
		Overbought: float64(p.Overbought),
		Oversold:   float64(p.Oversold),
	}
}

// Result is the structured output of one analysis evaluation.
type Result struct {
	Signal              Signal        `json:"signal" yaml:"signal"`
	Confidence          int           `json:"confidence" yaml:"confidence"`
	MarketCondition     string        `json:"market_condition" yaml:"market_condition"`
	RSIAnalysis         string        `json:"rsi_analysis" yaml:"rsi_analysis"`
	CurrentRSI          float64       `json:"current_rsi" yaml:"current_rsi"`
	NearestResistance   float64       `json:"nearest_resistance" yaml:"nearest_resistance"`
	NearestSupport      float64       `json:"nearest_support" yaml:"nearest_support"`
	ConfluenceZone      string        `json:"confluence_zone" yaml:"confluence_zone"`
	Recommendations     []string      `json:"recommendations" yaml:"recommendations"`
	BreakoutProbability int           `json:"breakout_probability" yaml:"breakout_probability"`
	BreakoutDirection   string        `json:"breakout_direction" yaml:"breakout_direction"`
	RSICondition        RSICondition  `json:"rsi_condition" yaml:"rsi_condition"`
	RSIMomentum         float64       `json:"rsi_momentum" yaml:"rsi_momentum"`
	Position            PositionLabel `json:"position" yaml:"position"`
	PriceChangePercent  float64       `json:"price_change_percent" yaml:"price_change_percent"`
}
