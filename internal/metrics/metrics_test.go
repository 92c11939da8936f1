package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"nifty-agent/internal/analysis"
)

func TestObserveResult(t *testing.T) {
	m := New()
	res := analysis.Result{Signal: analysis.Sell, Confidence: 70, CurrentRSI: 75, BreakoutProbability: 75}

	m.ObserveResult(res, 24520, 2*time.Millisecond)
	m.ObserveResult(res, 24525, time.Millisecond)

	if got := testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("SELL")); got != 2 {
		t.Errorf("evaluations{SELL} = %v", got)
	}
	if got := testutil.ToFloat64(m.CurrentRSI); got != 75 {
		t.Errorf("current rsi = %v", got)
	}
	if got := testutil.ToFloat64(m.LastPrice); got != 24525 {
		t.Errorf("last price = %v", got)
	}
	if got := testutil.ToFloat64(m.Confidence); got != 70 {
		t.Errorf("confidence = %v", got)
	}

	m.ObserveSourceError("csv")
	if got := testutil.ToFloat64(m.SourceErrorsTotal.WithLabelValues("csv")); got != 1 {
		t.Errorf("source errors = %v", got)
	}
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.ObserveResult(analysis.Result{Signal: analysis.Buy, Confidence: 65, CurrentRSI: 28}, 24440, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`nifty_agent_evaluations_total{signal="BUY"} 1`,
		"nifty_agent_current_rsi 28",
		"nifty_agent_evaluation_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
