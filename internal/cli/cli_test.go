package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"nifty-agent/internal/analysis"
	"nifty-agent/internal/analysis/pipeline"
	"nifty-agent/internal/config"
	"nifty-agent/internal/models"
	"nifty-agent/internal/store"
	"nifty-agent/pkg/utils"
)

// run executes the root command with args against the default config.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(config.Default(), zerolog.Nop())
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("agent %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func decodeReport(t *testing.T, out string) pipeline.Report {
	t.Helper()
	var r pipeline.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	return r
}

func TestLevelsFromHighLow(t *testing.T) {
	out := mustRun(t, "levels", "--high", "24550", "--low", "24450", "--json")

	var levels analysis.LevelSet
	if err := json.Unmarshal([]byte(out), &levels); err != nil {
		t.Fatal(err)
	}
	if levels.Resistance[0] != 24572.10 {
		t.Errorf("A1 = %v, want 24572.10", levels.Resistance[0])
	}
	if levels.Support[0] != 24427.99 {
		t.Errorf("B1 = %v, want 24427.99", levels.Support[0])
	}
	if levels.Resistance[3] != 24882.82 || levels.Support[3] != 24121.31 {
		t.Errorf("outer rungs = %v / %v", levels.Resistance[3], levels.Support[3])
	}
}

func TestLevelsRequiresBothBounds(t *testing.T) {
	if _, err := run(t, "levels", "--high", "24550"); err == nil {
		t.Fatal("expected error when --low is missing")
	}
}

func TestLevelsTextOutput(t *testing.T) {
	out := mustRun(t, "levels", "--high", "24550", "--low", "24450", "--no-color")
	for _, want := range []string{"A4", "A1", "B1", "B4", "24,572.10", "24,427.99"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("--no-color output contains escape codes")
	}
}

func TestPositionOnLevel(t *testing.T) {
	out := mustRun(t, "position", "--high", "24550", "--low", "24450", "--price", "24572.10", "--json")

	var pos analysis.PricePosition
	if err := json.Unmarshal([]byte(out), &pos); err != nil {
		t.Fatal(err)
	}
	if pos.Label != analysis.AtResistance {
		t.Errorf("label = %s, want AT_RESISTANCE", pos.Label)
	}
	if pos.NearestResistance != 24572.10 {
		t.Errorf("nearest resistance = %v", pos.NearestResistance)
	}
}

func TestAnalyzeSimulated(t *testing.T) {
	r := decodeReport(t, mustRun(t, "analyze", "--seed", "42", "--json"))

	if r.Symbol != "NIFTY 50" {
		t.Errorf("symbol = %q", r.Symbol)
	}
	if len(r.Candles) != 0 {
		t.Error("candles included without --candles")
	}
	// 75 candles, 74 deltas, 14 seed the averages
	if len(r.RSI) != 60 {
		t.Errorf("RSI points = %d, want 60", len(r.RSI))
	}
	if r.Result.CurrentRSI != r.RSI[len(r.RSI)-1].Value {
		t.Errorf("current RSI %v does not match series tail %v", r.Result.CurrentRSI, r.RSI[len(r.RSI)-1].Value)
	}
	if r.Result.Signal == "" || r.Result.Confidence == 0 {
		t.Errorf("empty signal: %+v", r.Result)
	}
}

func TestAnalyzeClampsParams(t *testing.T) {
	r := decodeReport(t, mustRun(t, "analyze", "--seed", "1", "--period", "100", "--oversold", "5", "--json"))
	if r.Params.Period != config.MaxPeriod {
		t.Errorf("period = %d, want %d", r.Params.Period, config.MaxPeriod)
	}
	if r.Params.Oversold != config.MinOversold {
		t.Errorf("oversold = %d, want %d", r.Params.Oversold, config.MinOversold)
	}
}

func TestAnalyzeYAML(t *testing.T) {
	out := mustRun(t, "analyze", "--seed", "7", "--yaml")

	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	a, ok := doc["analysis"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing analysis section:\n%s", out)
	}
	if _, ok := a["signal"]; !ok {
		t.Error("analysis has no signal")
	}
}

func TestAnalyzeTextOutput(t *testing.T) {
	out := mustRun(t, "analyze", "--seed", "7", "--no-color")
	for _, want := range []string{"NIFTY 50", "Market", "Signal", "Recommendations", "Breakout", "A1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderReportSessionAndVolume(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 15, 0, 0, utils.IndiaLocation)
	candles := make([]models.Candle, 20)
	for i := range candles {
		p := 24500 + float64(i%5)*10
		candles[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      p,
			High:      p + 5,
			Low:       p - 5,
			Close:     p,
			Volume:    75000,
		}
	}
	r, err := pipeline.Analyze(candles, analysis.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	r.GeneratedAt = start.Add(45 * time.Minute)

	var buf bytes.Buffer
	renderReport(&Output{writer: &buf}, r)
	out := buf.String()
	for _, want := range []string{"● OPEN", "15,00,000"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	r.GeneratedAt = time.Date(2024, 6, 1, 11, 0, 0, 0, utils.IndiaLocation)
	for i := range r.Candles {
		r.Candles[i].Volume = 0
	}
	buf.Reset()
	renderReport(&Output{writer: &buf}, r)
	out = buf.String()
	if !strings.Contains(out, "● CLOSED") {
		t.Errorf("Saturday report not closed:\n%s", out)
	}
	if strings.Contains(out, "Volume") {
		t.Errorf("zero-volume report shows volume:\n%s", out)
	}
}

func TestRSILast(t *testing.T) {
	out := mustRun(t, "rsi", "--seed", "3", "--last", "5", "--json")

	var doc struct {
		RSI []analysis.RSIPoint `json:"rsi"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.RSI) != 5 {
		t.Errorf("points = %d, want 5", len(doc.RSI))
	}
}

func TestExportCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.csv")
	mustRun(t, "export", path, "--seed", "11")

	sim := decodeReport(t, mustRun(t, "analyze", "--seed", "11", "--json"))
	csv := decodeReport(t, mustRun(t, "analyze", "--source", "csv", "--path", path, "--json"))

	if sim.Levels != csv.Levels {
		t.Errorf("levels differ: %+v vs %+v", sim.Levels, csv.Levels)
	}
	a, _ := json.Marshal(sim.Result)
	b, _ := json.Marshal(csv.Result)
	if !bytes.Equal(a, b) {
		t.Errorf("results differ:\n%s\n%s", a, b)
	}
}

func TestExportSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.db")
	mustRun(t, "export", path, "--format", "sqlite", "--seed", "5")

	sim := decodeReport(t, mustRun(t, "analyze", "--seed", "5", "--json"))
	db := decodeReport(t, mustRun(t, "analyze", "--source", "sqlite", "--path", path, "--json"))

	if sim.Levels != db.Levels {
		t.Errorf("levels differ: %+v vs %+v", sim.Levels, db.Levels)
	}
	if sim.Result.Signal != db.Result.Signal || sim.Result.CurrentRSI != db.Result.CurrentRSI {
		t.Errorf("results differ: %+v vs %+v", sim.Result, db.Result)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	if _, err := run(t, "export", filepath.Join(t.TempDir(), "x"), "--format", "parquet"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestUnknownSource(t *testing.T) {
	if _, err := run(t, "analyze", "--source", "kite"); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestWatchRecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "signals.db")
	out := mustRun(t, "watch", "--count", "1", "--seed", "9", "--record", "--db", db, "--json")
	report := decodeReport(t, out)

	var records []store.SignalRecord
	if err := json.Unmarshal([]byte(mustRun(t, "history", "--db", db, "--json")), &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Signal != report.Result.Signal || rec.Confidence != report.Result.Confidence {
		t.Errorf("record %+v does not match report %+v", rec, report.Result)
	}
	if rec.CycleID == "" || rec.ID == "" {
		t.Error("record missing ids")
	}
}

func TestHistoryEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "signals.db")
	out := mustRun(t, "history", "--db", db, "--json")
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("got %q, want []", out)
	}
}

func TestVersionAndConfig(t *testing.T) {
	out := mustRun(t, "version", "--json")
	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatal(err)
	}
	if v["version"] != Version {
		t.Errorf("version = %q", v["version"])
	}

	out = mustRun(t, "config", "validate", "--no-color")
	if !strings.Contains(out, "Configuration is valid") {
		t.Errorf("validate output: %s", out)
	}

	out = mustRun(t, "config", "show", "--yaml")
	var cfg map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatal(err)
	}
	if _, ok := cfg["analysis"]; !ok {
		t.Errorf("config show missing analysis:\n%s", out)
	}
}
