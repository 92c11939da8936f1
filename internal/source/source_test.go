package source

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nifty-agent/internal/config"
	apperrors "nifty-agent/internal/errors"
	"nifty-agent/internal/models"
	"nifty-agent/internal/store"
	"nifty-agent/pkg/utils"
)

func TestSimulated_DeterministicBySeed(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 15, 0, 0, utils.IndiaLocation)
	a := NewSimulated(SimulatedConfig{Seed: 42, Start: start})
	b := NewSimulated(SimulatedConfig{Seed: 42, Start: start})

	ca, err := a.Candles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	cb, _ := b.Candles(context.Background())

	if len(ca) != DefaultSimCandles {
		t.Fatalf("got %d candles, want %d", len(ca), DefaultSimCandles)
	}
	for i := range ca {
		if ca[i] != cb[i] {
			t.Fatalf("candle %d differs for the same seed: %+v vs %+v", i, ca[i], cb[i])
		}
	}

	next, _ := a.Candles(context.Background())
	if next[len(next)-1] == ca[len(ca)-1] {
		t.Error("successive sessions should differ")
	}
}

func TestSimulated_SessionShape(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 15, 0, 0, utils.IndiaLocation)
	candles, err := NewSimulated(SimulatedConfig{Seed: 7, Start: start}).Candles(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if err := Validate("NIFTY 50", candles); err != nil {
		t.Fatalf("simulated session invalid: %v", err)
	}
	if !candles[0].Timestamp.Equal(start) {
		t.Errorf("first candle at %v", candles[0].Timestamp)
	}
	last := candles[len(candles)-1].Timestamp
	if want := start.Add(74 * 5 * time.Minute); !last.Equal(want) {
		t.Errorf("last candle at %v, want %v", last, want)
	}
	for _, c := range candles {
		if c.Low > c.Open || c.Open > c.High || c.Low > c.Close || c.Close > c.High {
			t.Fatalf("candle outside its range: %+v", c)
		}
		if math.Abs(c.Close-DefaultBasePrice) > 0.2*DefaultBasePrice {
			t.Fatalf("walk drifted implausibly far: %+v", c)
		}
		if c.Close != math.Round(c.Close*100)/100 {
			t.Fatalf("close not rounded to 2 decimals: %v", c.Close)
		}
	}
}

func TestSimulated_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSimulated(SimulatedConfig{Seed: 1}).Candles(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

const sampleCSV = `timestamp,open,high,low,close,volume
2024-06-03 09:20:00,24520,24560,24500,24540,1200
2024-06-03T03:45:00Z,24500,24550,24450,24520,
1717386900,24540,24580,24530,24570,900
`

func TestCSV_ReadsMixedTimestampsAndSorts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nifty.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0644); err != nil {
		t.Fatal(err)
	}

	candles, err := NewCSV(path, "NIFTY 50").Candles(context.Background())
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("got %d candles", len(candles))
	}

	first := time.Date(2024, 6, 3, 9, 15, 0, 0, utils.IndiaLocation)
	for i, c := range candles {
		if want := first.Add(time.Duration(i) * 5 * time.Minute); !c.Timestamp.Equal(want) {
			t.Errorf("candle %d at %v, want %v", i, c.Timestamp, want)
		}
	}
	if candles[0].High != 24550 || candles[0].Volume != 0 {
		t.Errorf("reference candle = %+v", candles[0])
	}
	if candles[1].Volume != 1200 {
		t.Errorf("volume = %d", candles[1].Volume)
	}
}

func TestCSV_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewCSV(filepath.Join(dir, "missing.csv"), "NIFTY 50").Candles(context.Background())
	if !apperrors.Is(err, apperrors.ErrDataNotFound) {
		t.Errorf("missing file: expected ErrDataNotFound, got %v", err)
	}

	bad := "timestamp,open,high,low,close\n2024-06-03 09:15:00,10,9,11,10\n"
	path := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = NewCSV(path, "NIFTY 50").Candles(context.Background())
	if !apperrors.Is(err, apperrors.ErrInvalidCandle) {
		t.Errorf("high below low: expected ErrInvalidCandle, got %v", err)
	}

	if _, err := ReadCSV(strings.NewReader("timestamp,open,high,low,close\nyesterday,1,1,1,1\n")); err == nil {
		t.Error("expected timestamp parse error")
	}
}

func TestCSV_WriteReadRoundTrip(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 15, 0, 0, utils.IndiaLocation)
	candles, _ := NewSimulated(SimulatedConfig{Seed: 3, Candles: 10, Start: start}).Candles(context.Background())

	var buf bytes.Buffer
	if err := WriteCSV(&buf, candles); err != nil {
		t.Fatal(err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(candles) {
		t.Fatalf("got %d candles", len(got))
	}
	for i := range got {
		if !got[i].Timestamp.Equal(candles[i].Timestamp) || got[i].Close != candles[i].Close {
			t.Errorf("candle %d: %+v vs %+v", i, got[i], candles[i])
		}
	}
}

func TestValidate(t *testing.T) {
	ts := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	tests := []struct {
		name    string
		candles []models.Candle
		ok      bool
	}{
		{"empty", nil, true},
		{"valid", []models.Candle{{Timestamp: ts, Open: 1, High: 2, Low: 1, Close: 2}}, true},
		{"nan", []models.Candle{{Timestamp: ts, Open: math.NaN(), High: 2, Low: 1, Close: 2}}, false},
		{"inf", []models.Candle{{Timestamp: ts, Open: 1, High: math.Inf(1), Low: 1, Close: 2}}, false},
		{"duplicate", []models.Candle{
			{Timestamp: ts, Open: 1, High: 2, Low: 1, Close: 2},
			{Timestamp: ts, Open: 1, High: 2, Low: 1, Close: 2},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("NIFTY 50", tt.candles)
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok = %v", err, tt.ok)
			}
		})
	}
}

func TestSQLite_LatestSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "candles.db")
	st, err := store.NewSQLiteStore(db)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	day1 := time.Date(2024, 6, 3, 9, 15, 0, 0, utils.IndiaLocation)
	day2 := time.Date(2024, 6, 4, 9, 15, 0, 0, utils.IndiaLocation)
	old, _ := NewSimulated(SimulatedConfig{Seed: 1, Candles: 5, Start: day1}).Candles(ctx)
	cur, _ := NewSimulated(SimulatedConfig{Seed: 2, Candles: 4, Start: day2}).Candles(ctx)
	if err := st.SaveCandles(ctx, "NIFTY 50", "5min", append(old, cur...)); err != nil {
		t.Fatal(err)
	}

	src := NewSQLiteFromStore(st, "NIFTY 50", models.Timeframe5Min)
	defer src.Close()

	got, err := src.Candles(ctx)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if len(got) != len(cur) {
		t.Fatalf("got %d candles, want the %d of the latest day", len(got), len(cur))
	}
	if !got[0].Timestamp.Equal(day2) || got[0].High != cur[0].High {
		t.Errorf("reference candle = %+v", got[0])
	}

	empty := NewSQLiteFromStore(st, "NIFTY BANK", "")
	if _, err := empty.Candles(ctx); !apperrors.Is(err, apperrors.ErrDataNotFound) {
		t.Errorf("expected ErrDataNotFound, got %v", err)
	}
}

func TestNew(t *testing.T) {
	src, err := New(config.SourceConfig{Kind: config.SourceSimulated, Seed: 1})
	if err != nil || src.Name() != "sim" {
		t.Errorf("sim: %v %v", src, err)
	}
	src, err = New(config.SourceConfig{Kind: config.SourceCSV, Path: "x.csv"})
	if err != nil || src.Name() != "csv" {
		t.Errorf("csv: %v %v", src, err)
	}
	if _, err := New(config.SourceConfig{Kind: "kite"}); !apperrors.Is(err, apperrors.ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}
