// Package metrics exposes evaluation metrics for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nifty-agent/internal/analysis"
)

// Metrics holds all Prometheus metrics for the agent.
type Metrics struct {
	registry *prometheus.Registry

	EvaluationsTotal    *prometheus.CounterVec // labels: signal
	EvaluationDur       prometheus.Histogram
	SourceErrorsTotal   *prometheus.CounterVec // labels: source
	CurrentRSI          prometheus.Gauge
	Confidence          prometheus.Gauge
	BreakoutProbability prometheus.Gauge
	LastPrice           prometheus.Gauge
	LastEvaluation      prometheus.Gauge
}

// New creates the metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nifty_agent_evaluations_total",
			Help: "Completed evaluation cycles by resulting signal",
		}, []string{"signal"}),
		EvaluationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nifty_agent_evaluation_duration_seconds",
			Help:    "Time to fetch candles and evaluate one cycle",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SourceErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nifty_agent_source_errors_total",
			Help: "Failed candle fetches by source",
		}, []string{"source"}),
		CurrentRSI: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nifty_agent_current_rsi",
			Help: "RSI at the last evaluation",
		}),
		Confidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nifty_agent_signal_confidence",
			Help: "Confidence of the last signal",
		}),
		BreakoutProbability: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nifty_agent_breakout_probability",
			Help: "Breakout probability at the last evaluation",
		}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nifty_agent_last_price",
			Help: "Close of the latest candle",
		}),
		LastEvaluation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nifty_agent_last_evaluation_timestamp_seconds",
			Help: "Unix time of the last completed evaluation",
		}),
	}

	m.registry.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDur,
		m.SourceErrorsTotal,
		m.CurrentRSI,
		m.Confidence,
		m.BreakoutProbability,
		m.LastPrice,
		m.LastEvaluation,
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResult records one completed evaluation.
func (m *Metrics) ObserveResult(res analysis.Result, price float64, took time.Duration) {
	m.EvaluationsTotal.WithLabelValues(string(res.Signal)).Inc()
	m.EvaluationDur.Observe(took.Seconds())
	m.CurrentRSI.Set(res.CurrentRSI)
	m.Confidence.Set(float64(res.Confidence))
	m.BreakoutProbability.Set(float64(res.BreakoutProbability))
	m.LastPrice.Set(price)
	m.LastEvaluation.SetToCurrentTime()
}

// ObserveSourceError records a failed fetch.
func (m *Metrics) ObserveSourceError(source string) {
	m.SourceErrorsTotal.WithLabelValues(source).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server serves /metrics until shut down.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server listening on addr.
func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background. Listener errors are sent on the returned
// channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
