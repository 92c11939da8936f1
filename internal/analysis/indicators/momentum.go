package indicators

import (
	"fmt"

	"nifty-agent/internal/analysis"
	"nifty-agent/internal/models"
)

// Indicator defines the interface for single-value technical indicators.
type Indicator interface {
	Name() string
	Calculate(candles []models.Candle) ([]float64, error)
	Period() int
}

// RSI calculates the Relative Strength Index with Wilder smoothing and an
// optional trailing display smoothing.
type RSI struct {
	period    int
	smoothing int
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) *RSI {
	return &RSI{period: period, smoothing: 1}
}

// NewSmoothedRSI creates an RSI whose output is averaged over the last
// smoothing points.
func NewSmoothedRSI(period, smoothing int) *RSI {
	return &RSI{period: period, smoothing: smoothing}
}

func (r *RSI) Name() string {
	if r.smoothing > 1 {
		return fmt.Sprintf("RSI_%d_%d", r.period, r.smoothing)
	}
	return fmt.Sprintf("RSI_%d", r.period)
}

func (r *RSI) Period() int {
	return r.period
}

// Calculate returns one value per candle. Candles inside the warm-up window
// are left at zero.
func (r *RSI) Calculate(candles []models.Candle) ([]float64, error) {
	if r.period <= 0 || r.smoothing <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < r.period+2 {
		return nil, ErrInsufficientData
	}

	points := ComputeRSI(candles, r.period, r.smoothing)
	result := make([]float64, len(candles))
	offset := len(candles) - len(points)
	for i, p := range points {
		result[offset+i] = p.Value
	}
	return result, nil
}

// ComputeRSI computes Wilder's RSI over the close-to-close deltas of candles.
//
// The first period deltas seed the average gain and loss; every later delta
// updates them and emits a point stamped with the candle that closed it.
// Fewer than period+1 candles yield an empty series. A zero average loss
// saturates RSI at 100. With smoothing > 1 each point becomes the mean of
// itself and the previous smoothing-1 points once enough points exist.
// Values are rounded to 2 decimals.
func ComputeRSI(candles []models.Candle, period, smoothing int) []analysis.RSIPoint {
	if period < 1 {
		period = 1
	}
	if smoothing < 1 {
		smoothing = 1
	}
	if len(candles) < period+1 {
		return []analysis.RSIPoint{}
	}

	closes := closePrices(candles)
	changes := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		changes[i-1] = closes[i] - closes[i-1]
	}

	var avgGain, avgLoss float64
	for _, change := range changes[:period] {
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	p := float64(period)
	points := make([]analysis.RSIPoint, 0, len(changes)-period)
	for i := period; i < len(changes); i++ {
		change := changes[i]
		if change > 0 {
			avgGain = (avgGain*(p-1) + change) / p
			avgLoss = (avgLoss * (p - 1)) / p
		} else {
			avgGain = (avgGain * (p - 1)) / p
			avgLoss = (avgLoss*(p-1) - change) / p
		}

		points = append(points, analysis.RSIPoint{
			Timestamp: candles[i+1].Timestamp,
			Value:     Round2(rsiValue(avgGain, avgLoss)),
		})
	}

	if smoothing > 1 {
		return smoothRSI(points, smoothing)
	}
	return points
}

// rsiValue converts average gain and loss into an RSI reading.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// smoothRSI applies a trailing simple moving average of width window. Points
// before the window fills pass through unchanged.
func smoothRSI(points []analysis.RSIPoint, window int) []analysis.RSIPoint {
	smoothed := make([]analysis.RSIPoint, len(points))
	values := make([]float64, len(points))
	for i, pt := range points {
		values[i] = pt.Value
	}

	for i, pt := range points {
		if i < window-1 {
			smoothed[i] = pt
			continue
		}
		smoothed[i] = analysis.RSIPoint{
			Timestamp: pt.Timestamp,
			Value:     Round2(mean(values[i-window+1 : i+1])),
		}
	}
	return smoothed
}

// LastRSI returns the final value of series, or fallback when it is empty.
func LastRSI(series []analysis.RSIPoint, fallback float64) float64 {
	if len(series) == 0 {
		return fallback
	}
	return series[len(series)-1].Value
}
