package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "nifty-agent/internal/errors"
	"nifty-agent/internal/models"
	"nifty-agent/pkg/utils"
)

// csvCandle is one row of a candle file. Timestamp and volume stay textual
// so several timestamp layouts and a blank volume are accepted.
type csvCandle struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    string  `csv:"volume"`
}

// Local timestamp layouts, interpreted in IST.
var csvTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// CSV reads a session from a headered CSV file
// (timestamp,open,high,low,close[,volume]). The file is re-read on every
// call so an external writer can append candles between refreshes.
type CSV struct {
	path   string
	symbol string
}

// NewCSV creates a CSV source.
func NewCSV(path, symbol string) *CSV {
	return &CSV{path: path, symbol: symbol}
}

// Name returns the source name.
func (c *CSV) Name() string {
	return "csv"
}

// Candles reads, sorts and validates the file.
func (c *CSV) Candles(ctx context.Context) ([]models.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewDataError("candles", c.symbol, c.path, apperrors.ErrDataNotFound)
		}
		return nil, fmt.Errorf("opening candle file: %w", err)
	}
	defer f.Close()

	candles, err := ReadCSV(f)
	if err != nil {
		return nil, apperrors.NewDataError("candles", c.symbol, "parsing "+c.path, err)
	}
	return Normalize(c.symbol, candles)
}

// ReadCSV decodes candle rows from r without sorting or validating them.
func ReadCSV(r io.Reader) ([]models.Candle, error) {
	var rows []*csvCandle
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		var volume int64
		if v := strings.TrimSpace(row.Volume); v != "" {
			volume, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: volume %q: %w", i+1, row.Volume, err)
			}
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    volume,
		})
	}
	return candles, nil
}

// WriteCSV encodes candles with RFC 3339 timestamps.
func WriteCSV(w io.Writer, candles []models.Candle) error {
	rows := make([]*csvCandle, len(candles))
	for i, c := range candles {
		rows[i] = &csvCandle{
			Timestamp: c.Timestamp.Format(time.RFC3339),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    strconv.FormatInt(c.Volume, 10),
		}
	}
	return gocsv.Marshal(rows, w)
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, utils.IndiaLocation); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).In(utils.IndiaLocation), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
