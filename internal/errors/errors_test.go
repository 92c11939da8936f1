package errors

import (
	"fmt"
	"testing"
)

func TestDataError_Unwrap(t *testing.T) {
	err := NewDataError("candles", "NIFTY", "high below low", ErrInvalidCandle)
	wrapped := Wrap(err, "load session")

	if !Is(wrapped, ErrInvalidCandle) {
		t.Errorf("expected ErrInvalidCandle in chain: %v", wrapped)
	}
	var de *DataError
	if !As(wrapped, &de) || de.Symbol != "NIFTY" {
		t.Errorf("expected DataError for NIFTY, got %v", de)
	}
	if got := err.Error(); got != "data error [candles] NIFTY: high below low: invalid candle" {
		t.Errorf("message = %q", got)
	}
}

func TestValidationError_MatchesConfigInvalid(t *testing.T) {
	err := NewValidationError("analysis.period", 3, "must be between 5 and 50")
	if !Is(fmt.Errorf("load: %w", err), ErrConfigInvalid) {
		t.Error("validation errors should match ErrConfigInvalid")
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil, "x") != nil || Wrapf(nil, "x %d", 1) != nil {
		t.Error("wrapping nil must return nil")
	}
}
