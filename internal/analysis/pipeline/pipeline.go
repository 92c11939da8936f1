// Package pipeline threads one candle sequence through levels, RSI, the
// position classifier and the signal engine, so every consumer of a
// Report sees values derived from the same data.
package pipeline

import (
	"context"
	"sync"
	"time"

	"nifty-agent/internal/analysis"
	"nifty-agent/internal/analysis/indicators"
	"nifty-agent/internal/analysis/signal"
	"nifty-agent/internal/models"
)

// Report is the outcome of one evaluation cycle.
type Report struct {
	Symbol      string                 `json:"symbol" yaml:"symbol"`
	Params      analysis.Params        `json:"params" yaml:"params"`
	Candles     []models.Candle        `json:"candles,omitempty" yaml:"candles,omitempty"`
	Levels      analysis.LevelSet      `json:"levels" yaml:"levels"`
	RSI         []analysis.RSIPoint    `json:"rsi" yaml:"rsi"`
	Position    analysis.PricePosition `json:"price_position" yaml:"price_position"`
	Result      analysis.Result        `json:"analysis" yaml:"analysis"`
	GeneratedAt time.Time              `json:"generated_at" yaml:"generated_at"`
}

// LastPrice returns the close of the final candle.
func (r *Report) LastPrice() float64 {
	if len(r.Candles) == 0 {
		return 0
	}
	return r.Candles[len(r.Candles)-1].Close
}

// Analyze evaluates one candle sequence. Levels come from the first
// candle and the RSI series from all of them. Smoothing only shapes the
// reported series; the signal reads the unsmoothed Wilder RSI. The only
// error is an empty sequence.
func Analyze(candles []models.Candle, params analysis.Params) (*Report, error) {
	levels, err := indicators.LevelsFromCandles(candles)
	if err != nil {
		return nil, err
	}

	rsi := indicators.ComputeRSI(candles, params.Period, params.Smoothing)
	raw := rsi
	if params.Smoothing > 1 {
		raw = indicators.ComputeRSI(candles, params.Period, 1)
	}
	price := candles[len(candles)-1].Close

	result := signal.Evaluate(signal.Input{
		Candles:    candles,
		Levels:     levels,
		RSI:        raw,
		Thresholds: params.Thresholds(),
	})

	return &Report{
		Params:      params,
		Candles:     candles,
		Levels:      levels,
		RSI:         rsi,
		Position:    indicators.ClassifyPosition(price, levels),
		Result:      result,
		GeneratedAt: time.Now(),
	}, nil
}

// AnalyzeSession evaluates a session and labels the report with its symbol.
func AnalyzeSession(s models.Session, params analysis.Params) (*Report, error) {
	r, err := Analyze(s.Candles, params)
	if err != nil {
		return nil, err
	}
	r.Symbol = s.Symbol
	return r, nil
}

// Outcome pairs a session with its report or error.
type Outcome struct {
	Symbol string
	Report *Report
	Err    error
}

// Engine evaluates independent sessions on a worker pool.
type Engine struct {
	workers int
	params  analysis.Params
	mu      sync.RWMutex
}

// NewEngine creates an engine with the specified number of workers.
func NewEngine(workers int, params analysis.Params) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		workers: workers,
		params:  params,
	}
}

// SetParams replaces the parameters used by subsequent evaluations.
func (e *Engine) SetParams(p analysis.Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = p
}

// Params returns the current parameters.
func (e *Engine) Params() analysis.Params {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params
}

// AnalyzeAll evaluates sessions in parallel. Outcomes keep the input
// order. Sessions not started before ctx is cancelled carry ctx.Err().
func (e *Engine) AnalyzeAll(ctx context.Context, sessions []models.Session) []Outcome {
	params := e.Params()
	outcomes := make([]Outcome, len(sessions))

	work := make(chan int, len(sessions))
	for i := range sessions {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				outcomes[i].Symbol = sessions[i].Symbol
				select {
				case <-ctx.Done():
					outcomes[i].Err = ctx.Err()
				default:
					outcomes[i].Report, outcomes[i].Err = AnalyzeSession(sessions[i], params)
				}
			}
		}()
	}
	wg.Wait()

	return outcomes
}
