package indicators

import (
	"nifty-agent/internal/analysis"
	"nifty-agent/internal/models"
)

// LevelMultipliers are the compounding step sizes for each rung. Every rung
// is offset from the previous (unrounded) rung by its multiplier.
var LevelMultipliers = [analysis.LevelCount]float64{0.0009, 0.0018, 0.0036, 0.0072}

// ComputeLevels derives the resistance ladder from high and the support
// ladder from low. Any finite high/low pair is accepted.
func ComputeLevels(high, low float64) analysis.LevelSet {
	levels := analysis.LevelSet{
		ReferenceHigh: high,
		ReferenceLow:  low,
	}

	r, s := high, low
	for i, k := range LevelMultipliers {
		// Conversions keep each step from being fused into a single
		// multiply-add, which would change the last bit on some targets.
		r = r + float64(r*k)
		s = s - float64(s*k)
		levels.Resistance[i] = Round2(r)
		levels.Support[i] = Round2(s)
	}

	return levels
}

// LevelsFromCandles computes the ladder from the first candle of the session.
func LevelsFromCandles(candles []models.Candle) (analysis.LevelSet, error) {
	if len(candles) == 0 {
		return analysis.LevelSet{}, ErrInsufficientData
	}
	ref := candles[0]
	return ComputeLevels(ref.High, ref.Low), nil
}
