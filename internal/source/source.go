// Package source supplies the candle sequence each evaluation cycle runs on.
package source

import (
	"context"
	"math"
	"sort"

	"nifty-agent/internal/config"
	apperrors "nifty-agent/internal/errors"
	"nifty-agent/internal/models"
)

// Source produces one chronologically ordered candle sequence per call.
type Source interface {
	Name() string
	Candles(ctx context.Context) ([]models.Candle, error)
}

// New builds the source selected by cfg.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Kind {
	case config.SourceSimulated, "":
		return NewSimulated(SimulatedConfig{
			Seed:    cfg.Seed,
			Candles: cfg.Candles,
		}), nil
	case config.SourceCSV:
		return NewCSV(cfg.Path, cfg.Symbol), nil
	case config.SourceSQLite:
		return NewSQLite(cfg.Path, cfg.Symbol, models.Timeframe(cfg.Timeframe))
	default:
		return nil, apperrors.Wrapf(apperrors.ErrUnknownSource, "source kind %q", cfg.Kind)
	}
}

// Normalize sorts candles chronologically and validates them. Duplicate
// timestamps, non-finite prices and inverted ranges are rejected with a
// DataError wrapping ErrInvalidCandle.
func Normalize(symbol string, candles []models.Candle) ([]models.Candle, error) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	if err := Validate(symbol, candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// Validate checks an already sorted candle sequence.
func Validate(symbol string, candles []models.Candle) error {
	for i, c := range candles {
		if !finite(c.Open) || !finite(c.High) || !finite(c.Low) || !finite(c.Close) {
			return apperrors.NewDataError("candles", symbol,
				"non-finite price at "+c.Timestamp.String(), apperrors.ErrInvalidCandle)
		}
		if c.High < c.Low {
			return apperrors.NewDataError("candles", symbol,
				"high below low at "+c.Timestamp.String(), apperrors.ErrInvalidCandle)
		}
		if i > 0 && !c.Timestamp.After(candles[i-1].Timestamp) {
			return apperrors.NewDataError("candles", symbol,
				"duplicate or unordered timestamp "+c.Timestamp.String(), apperrors.ErrInvalidCandle)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
