// Package store provides candle and signal-history persistence.
package store

import (
	"context"
	"time"

	"nifty-agent/internal/analysis"
	"nifty-agent/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Candles
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error)
	GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error)

	// Signal history
	SaveSignal(ctx context.Context, record *SignalRecord) error
	GetSignals(ctx context.Context, filter SignalFilter) ([]SignalRecord, error)

	// Lifecycle
	Close() error
}

// SignalRecord is one persisted evaluation.
type SignalRecord struct {
	ID                  string                 `json:"id" yaml:"id"`
	CycleID             string                 `json:"cycle_id" yaml:"cycle_id"`
	Timestamp           time.Time              `json:"timestamp" yaml:"timestamp"`
	Symbol              string                 `json:"symbol" yaml:"symbol"`
	Price               float64                `json:"price" yaml:"price"`
	Signal              analysis.Signal        `json:"signal" yaml:"signal"`
	Confidence          int                    `json:"confidence" yaml:"confidence"`
	RSI                 float64                `json:"rsi" yaml:"rsi"`
	Position            analysis.PositionLabel `json:"position" yaml:"position"`
	BreakoutProbability int                    `json:"breakout_probability" yaml:"breakout_probability"`
	Recommendations     []string               `json:"recommendations" yaml:"recommendations"`
}

// SignalFilter represents filters for querying signal history.
type SignalFilter struct {
	Symbol    string
	Signal    analysis.Signal
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
