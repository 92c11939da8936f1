package source

import (
	"context"
	"fmt"
	"time"

	apperrors "nifty-agent/internal/errors"
	"nifty-agent/internal/models"
	"nifty-agent/internal/store"
	"nifty-agent/pkg/utils"
)

// SQLite reads the most recent session for one symbol and timeframe from a
// candle database filled by an external collector.
type SQLite struct {
	store     store.DataStore
	symbol    string
	timeframe models.Timeframe
}

// NewSQLite opens the database at path.
func NewSQLite(path, symbol string, timeframe models.Timeframe) (*SQLite, error) {
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	return NewSQLiteFromStore(s, symbol, timeframe), nil
}

// NewSQLiteFromStore wraps an existing store.
func NewSQLiteFromStore(s store.DataStore, symbol string, timeframe models.Timeframe) *SQLite {
	if timeframe == "" {
		timeframe = models.Timeframe5Min
	}
	return &SQLite{store: s, symbol: symbol, timeframe: timeframe}
}

// Name returns the source name.
func (s *SQLite) Name() string {
	return "sqlite"
}

// Candles returns every candle of the calendar day (IST) holding the latest
// stored candle.
func (s *SQLite) Candles(ctx context.Context) ([]models.Candle, error) {
	latest, err := s.store.GetCandlesFreshness(ctx, s.symbol, string(s.timeframe))
	if err != nil {
		return nil, apperrors.Wrap(err, "reading candle freshness")
	}
	if latest.IsZero() {
		return nil, apperrors.NewDataError("candles", s.symbol,
			fmt.Sprintf("no %s candles stored", s.timeframe), apperrors.ErrDataNotFound)
	}

	d := latest.In(utils.IndiaLocation)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, utils.IndiaLocation)
	candles, err := s.store.GetCandles(ctx, s.symbol, string(s.timeframe), from, latest)
	if err != nil {
		return nil, apperrors.Wrap(err, "reading candles")
	}
	return Normalize(s.symbol, candles)
}

// Store exposes the underlying store so callers can record signals in the
// same database.
func (s *SQLite) Store() store.DataStore {
	return s.store
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.store.Close()
}
