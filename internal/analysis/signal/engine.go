// Package signal combines RSI state, RSI momentum and price position into a
// trading signal with confidence, narrative and breakout probability.
package signal

import (
	"nifty-agent/internal/analysis"
	"nifty-agent/internal/analysis/indicators"
	"nifty-agent/internal/models"
)

const (
	// DefaultRSI stands in for the current RSI when no RSI point exists.
	DefaultRSI = 50.0
	// MomentumWindow is the number of RSI points, current one included,
	// spanned by the momentum reading.
	MomentumWindow = 5
)

// Input is everything one evaluation needs. All fields must derive from the
// same candle sequence.
type Input struct {
	Candles    []models.Candle
	Levels     analysis.LevelSet
	RSI        []analysis.RSIPoint
	Thresholds analysis.Thresholds
}

// Evaluate runs the signal decision table, the breakout table and the
// narrative templates over in. It holds no state and never fails; missing
// data falls back to neutral defaults.
func Evaluate(in Input) analysis.Result {
	currentRSI := indicators.LastRSI(in.RSI, DefaultRSI)
	momentum := Momentum(in.RSI)
	condition := ClassifyRSI(currentRSI, in.Thresholds)

	var price float64
	if n := len(in.Candles); n > 0 {
		price = in.Candles[n-1].Close
	}
	position := indicators.ClassifyPosition(price, in.Levels)
	change := PriceChangePercent(in.Candles)

	sig, confidence := Decide(position.Label, condition, momentum)
	probability, direction := Breakout(position.Label, condition, currentRSI, momentum)

	return analysis.Result{
		Signal:              sig,
		Confidence:          confidence,
		MarketCondition:     marketCondition(position, change),
		RSIAnalysis:         rsiAnalysis(condition, currentRSI, momentum),
		CurrentRSI:          indicators.Round2(currentRSI),
		NearestResistance:   position.NearestResistance,
		NearestSupport:      position.NearestSupport,
		ConfluenceZone:      confluenceZone(position.Label, condition),
		Recommendations:     recommendations(sig, position),
		BreakoutProbability: probability,
		BreakoutDirection:   direction,
		RSICondition:        condition,
		RSIMomentum:         indicators.Round2(momentum),
		Position:            position.Label,
		PriceChangePercent:  indicators.Round2(change),
	}
}

// ClassifyRSI buckets rsi against the thresholds. The slightly-overbought
// and slightly-oversold bands sit halfway between each threshold and 50.
func ClassifyRSI(rsi float64, t analysis.Thresholds) analysis.RSICondition {
	switch {
	case rsi > t.Overbought:
		return analysis.Overbought
	case rsi < t.Oversold:
		return analysis.Oversold
	case rsi > (t.Overbought+50)/2:
		return analysis.SlightlyOverbought
	case rsi < (t.Oversold+50)/2:
		return analysis.SlightlyOversold
	default:
		return analysis.RSINeutral
	}
}

// Momentum is the change of RSI across the last MomentumWindow points. It
// is zero until the series holds more than MomentumWindow points.
func Momentum(series []analysis.RSIPoint) float64 {
	n := len(series)
	if n <= MomentumWindow {
		return 0
	}
	return series[n-1].Value - series[n-MomentumWindow].Value
}

// PriceChangePercent is the session move from the first close to the last.
func PriceChangePercent(candles []models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	first := candles[0].Close
	if first == 0 {
		return 0
	}
	return (candles[len(candles)-1].Close - first) / first * 100
}

// rule is one row of the signal decision table.
type rule struct {
	matches    func(p analysis.PositionLabel, c analysis.RSICondition, momentum float64) bool
	signal     analysis.Signal
	confidence int
}

// signalRules are evaluated top to bottom; the first match wins.
var signalRules = []rule{
	{
		matches: func(p analysis.PositionLabel, c analysis.RSICondition, _ float64) bool {
			return p == analysis.AtSupport && c == analysis.Oversold
		},
		signal: analysis.StrongBuy, confidence: 85,
	},
	{
		matches: func(p analysis.PositionLabel, c analysis.RSICondition, _ float64) bool {
			return p == analysis.NearSupport && c == analysis.Oversold
		},
		signal: analysis.Buy, confidence: 70,
	},
	{
		matches: func(p analysis.PositionLabel, c analysis.RSICondition, _ float64) bool {
			return p == analysis.AtResistance && c == analysis.Overbought
		},
		signal: analysis.StrongSell, confidence: 85,
	},
	{
		matches: func(p analysis.PositionLabel, c analysis.RSICondition, _ float64) bool {
			return p == analysis.NearResistance && c == analysis.Overbought
		},
		signal: analysis.Sell, confidence: 70,
	},
	{
		matches: func(_ analysis.PositionLabel, c analysis.RSICondition, m float64) bool {
			return c == analysis.Oversold && m > 5
		},
		signal: analysis.Buy, confidence: 65,
	},
	{
		matches: func(_ analysis.PositionLabel, c analysis.RSICondition, m float64) bool {
			return c == analysis.Overbought && m < -5
		},
		signal: analysis.Sell, confidence: 65,
	},
	{
		matches: func(p analysis.PositionLabel, c analysis.RSICondition, _ float64) bool {
			return p == analysis.AtSupport && c != analysis.Overbought
		},
		signal: analysis.Buy, confidence: 60,
	},
	{
		matches: func(p analysis.PositionLabel, c analysis.RSICondition, _ float64) bool {
			return p == analysis.AtResistance && c != analysis.Oversold
		},
		signal: analysis.Sell, confidence: 60,
	},
}

// Decide returns the signal and confidence for the first matching rule, or
// NEUTRAL at 50 when none matches.
func Decide(position analysis.PositionLabel, condition analysis.RSICondition, momentum float64) (analysis.Signal, int) {
	for _, r := range signalRules {
		if r.matches(position, condition, momentum) {
			return r.signal, r.confidence
		}
	}
	return analysis.Neutral, 50
}

// Breakout returns the breakout probability and its direction text. The
// table is independent of the signal table; the first match wins.
func Breakout(position analysis.PositionLabel, condition analysis.RSICondition, rsi, momentum float64) (int, string) {
	switch {
	case condition == analysis.Overbought && momentum > 5:
		return 75, "High probability of upside breakout through resistance"
	case condition == analysis.Oversold && momentum < -5:
		return 75, "High probability of downside breakdown through support"
	case position == analysis.AtResistance && rsi > 60:
		return 65, "Moderate probability of resistance breakout"
	case position == analysis.AtSupport && rsi < 40:
		return 65, "Moderate probability of support breakdown"
	case momentum > 7:
		return 60, "Building momentum for upside move"
	case momentum < -7:
		return 60, "Building momentum for downside move"
	default:
		return 50, "Neutral - monitoring for directional move"
	}
}
