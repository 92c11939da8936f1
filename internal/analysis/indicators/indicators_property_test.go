package indicators

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"nifty-agent/internal/analysis"
	"nifty-agent/internal/models"
)

// candleGen generates valid candle data with realistic OHLC values
func candleGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Candle{}), map[string]gopter.Gen{
		"Timestamp": gen.TimeRange(time.Now().Add(-365*24*time.Hour), time.Hour),
		"Open":      gen.Float64Range(100.0, 1000.0),
		"High":      gen.Float64Range(100.0, 1000.0),
		"Low":       gen.Float64Range(100.0, 1000.0),
		"Close":     gen.Float64Range(100.0, 1000.0),
		"Volume":    gen.Int64Range(0, 10000000),
	}).Map(sanitizeCandle)
}

func sanitizeCandle(c models.Candle) models.Candle {
	if c.Open <= 0 {
		c.Open = 100.0
	}
	if c.High <= 0 {
		c.High = 100.0
	}
	if c.Low <= 0 {
		c.Low = 100.0
	}
	if c.Close <= 0 {
		c.Close = 100.0
	}
	// Ensure OHLC constraints: High >= max(Open, Close) and Low <= min(Open, Close)
	c.High = math.Max(c.High, math.Max(c.Open, c.Close))
	c.Low = math.Min(c.Low, math.Min(c.Open, c.Close))
	return c
}

// candleSliceGen generates a chronological slice of valid candles
func candleSliceGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, candleGen()).Map(func(candles []models.Candle) []models.Candle {
		for len(candles) < minLen {
			if len(candles) == 0 {
				candles = append(candles, sanitizeCandle(models.Candle{}))
				continue
			}
			candles = append(candles, candles[len(candles)-1])
		}
		start := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)
		for i := range candles {
			candles[i].Timestamp = start.Add(time.Duration(i) * 5 * time.Minute)
			candles[i] = sanitizeCandle(candles[i])
		}
		return candles
	})
}

func TestProperty_RSIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values are within [0, 100]", prop.ForAll(
		func(candles []models.Candle, period, smoothing int) bool {
			for _, p := range ComputeRSI(candles, period, smoothing) {
				if p.Value < 0 || p.Value > 100 {
					return false
				}
			}
			return true
		},
		candleSliceGen(20, 100),
		gen.IntRange(1, 50),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

func TestProperty_RSIEmptyWhenShort(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)

	properties.Property("fewer than period+1 candles yields no RSI", prop.ForAll(
		func(candles []models.Candle, extra int) bool {
			period := len(candles) + extra
			return len(ComputeRSI(candles, period, 1)) == 0
		},
		candleSliceGen(1, 30),
		gen.IntRange(0, 20),
	))

	properties.Property("one point per delta beyond the warm-up window", prop.ForAll(
		func(candles []models.Candle, period int) bool {
			want := len(candles) - 1 - period
			if want < 0 {
				want = 0
			}
			return len(ComputeRSI(candles, period, 3)) == want
		},
		candleSliceGen(20, 60),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

func TestProperty_LevelLadderMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("resistance strictly increases above high, support strictly decreases below low", prop.ForAll(
		func(low, spread float64) bool {
			high := low + spread
			levels := ComputeLevels(high, low)

			prev := high
			for _, r := range levels.Resistance {
				if r <= prev {
					return false
				}
				prev = r
			}
			prev = low
			for _, s := range levels.Support {
				if s >= prev {
					return false
				}
				prev = s
			}
			return true
		},
		gen.Float64Range(1000.0, 100000.0),
		gen.Float64Range(0, 500.0),
	))

	properties.TestingRun(t)
}

func TestProperty_PositionAlwaysLabelled(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	valid := map[analysis.PositionLabel]bool{
		analysis.AtResistance:   true,
		analysis.AtSupport:      true,
		analysis.NearResistance: true,
		analysis.NearSupport:    true,
	}

	properties.Property("classifier returns one of the four position labels", prop.ForAll(
		func(ref, offset float64) bool {
			levels := ComputeLevels(ref+50, ref-50)
			pos := ClassifyPosition(ref*(1+offset), levels)
			return valid[pos.Label]
		},
		gen.Float64Range(10000.0, 30000.0),
		gen.Float64Range(-0.05, 0.05),
	))

	properties.TestingRun(t)
}
