package signal

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"nifty-agent/internal/analysis"
	"nifty-agent/internal/analysis/indicators"
	"nifty-agent/internal/models"
)

func TestProperty_ConfidenceMatchesSignal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	allowed := map[analysis.Signal]map[int]bool{
		analysis.StrongBuy:  {85: true},
		analysis.StrongSell: {85: true},
		analysis.Buy:        {70: true, 65: true, 60: true},
		analysis.Sell:       {70: true, 65: true, 60: true},
		analysis.Neutral:    {50: true},
	}

	properties.Property("confidence is one of the constants for its signal", prop.ForAll(
		func(offset float64, values []float64) bool {
			levels := indicators.ComputeLevels(24550, 24450)
			price := 24500 * (1 + offset)
			points := make([]analysis.RSIPoint, len(values))
			for i, v := range values {
				points[i] = analysis.RSIPoint{Value: v}
			}
			res := Evaluate(Input{
				Candles:    []models.Candle{{Close: 24500}, {Close: price}},
				Levels:     levels,
				RSI:        points,
				Thresholds: analysis.Thresholds{Overbought: 70, Oversold: 30},
			})
			return allowed[res.Signal][res.Confidence] && len(res.Recommendations) == 3
		},
		gen.Float64Range(-0.03, 0.03),
		gen.SliceOf(gen.Float64Range(0, 100)),
	))

	properties.Property("breakout probability stays within the table", prop.ForAll(
		func(rsi, momentum float64) bool {
			condition := ClassifyRSI(rsi, analysis.Thresholds{Overbought: 70, Oversold: 30})
			p, d := Breakout(analysis.NearSupport, condition, rsi, momentum)
			return p >= 50 && p <= 75 && d != ""
		},
		gen.Float64Range(0, 100),
		gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t)
}
