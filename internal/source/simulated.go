package source

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"nifty-agent/internal/analysis/indicators"
	"nifty-agent/internal/models"
	"nifty-agent/pkg/utils"
)

// Simulator defaults, one full NSE session of 5-minute candles.
const (
	DefaultBasePrice  = 24500.0
	DefaultSimCandles = 75
	simVolatility     = 0.002
	simRangeFraction  = 0.001
	simCandleDuration = 5 * time.Minute
)

// SimulatedConfig configures the random-walk generator.
type SimulatedConfig struct {
	// Seed makes sessions reproducible; zero seeds from the clock.
	Seed      int64
	Candles   int
	BasePrice float64
	// Start is the first candle's time; zero means today's 09:15 IST.
	Start time.Time
}

// Simulated generates a random-walk intraday session around a base price.
type Simulated struct {
	cfg SimulatedConfig
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulated creates a simulated source.
func NewSimulated(cfg SimulatedConfig) *Simulated {
	if cfg.Candles <= 0 {
		cfg.Candles = DefaultSimCandles
	}
	if cfg.BasePrice <= 0 {
		cfg.BasePrice = DefaultBasePrice
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulated{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Name returns the source name.
func (s *Simulated) Name() string {
	return "sim"
}

// Candles generates a fresh session. Each call advances the generator, so
// successive calls on one source differ while two sources with the same
// seed produce the same sequence of sessions.
func (s *Simulated) Candles(ctx context.Context) ([]models.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := s.cfg.Start
	if start.IsZero() {
		start = utils.SessionOpen(s.now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.cfg.BasePrice
	price := base
	candles := make([]models.Candle, 0, s.cfg.Candles)

	for i := 0; i < s.cfg.Candles; i++ {
		price += (s.rng.Float64() - 0.5) * base * simVolatility

		open := price
		high := price + s.rng.Float64()*base*simRangeFraction
		low := price - s.rng.Float64()*base*simRangeFraction
		close := low + s.rng.Float64()*(high-low)

		candles = append(candles, models.Candle{
			Timestamp: start.Add(time.Duration(i) * simCandleDuration),
			Open:      indicators.Round2(open),
			High:      indicators.Round2(high),
			Low:       indicators.Round2(low),
			Close:     indicators.Round2(close),
		})

		price = close
	}

	return candles, nil
}
