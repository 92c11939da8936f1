package indicators

import (
	"errors"
	"math"
	"math/big"
	"strconv"

	apperrors "nifty-agent/internal/errors"
	"nifty-agent/internal/models"
)

var (
	// ErrInsufficientData is returned when there's not enough data for calculation.
	ErrInsufficientData = apperrors.ErrInsufficientData
	// ErrInvalidPeriod is returned when the period is invalid.
	ErrInvalidPeriod = errors.New("invalid period")
)

// sum calculates the sum of a slice of float64.
func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// mean calculates the arithmetic mean of a slice of float64.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// abs returns the absolute value of a float64.
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// closePrices extracts close prices from candles.
func closePrices(candles []models.Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	return prices
}

// Round2 rounds to price-cent precision using the nearest two-decimal
// rendering of the exact binary value, so 24572.095000000001 becomes
// 24572.10 and 24427.994999999999 becomes 24427.99. Values sitting exactly
// on a half cent round away from zero (50.125 -> 50.13, -0.125 -> -0.13).
func Round2(x float64) float64 {
	if isHalfCent(x) {
		a := (math.Floor(math.Abs(x)*100) + 1) / 100
		return math.Copysign(a, x)
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return v
}

// isHalfCent reports whether the exact binary value of x times 100 has a
// fractional part of exactly one half.
func isHalfCent(x float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	f := new(big.Float).SetPrec(256).SetFloat64(x)
	f.Mul(f, big.NewFloat(100))
	f.Abs(f)
	whole, _ := f.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(f, new(big.Float).SetPrec(256).SetInt(whole))
	return frac.Cmp(big.NewFloat(0.5)) == 0
}
