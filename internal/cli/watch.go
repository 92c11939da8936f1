package cli

import (
	"context"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"nifty-agent/internal/analysis/pipeline"
	"nifty-agent/internal/config"
	apperrors "nifty-agent/internal/errors"
	"nifty-agent/internal/logging"
	"nifty-agent/internal/metrics"
	"nifty-agent/internal/models"
	"nifty-agent/internal/resilience"
	"nifty-agent/internal/scheduler"
	"nifty-agent/internal/store"
	"nifty-agent/pkg/utils"
)

// addWatchCommands adds the periodic refresh command.
func addWatchCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchCmd(app))
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate the session on a refresh schedule",
		Long: `Fetch the session and run the full evaluation on every refresh tick.

Each tick fetches one candle sequence and renders one report. The refresh
interval or cron schedule comes from the [refresh] config section unless
overridden. With --record every evaluation is stored for 'agent history'.`,
		Example: `  agent watch
  agent watch --interval 30s --record
  agent watch --schedule "*/5 9-15 * * 1-5" --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			interval := app.Config.Refresh.Interval
			if cmd.Flags().Changed("interval") {
				interval, _ = cmd.Flags().GetDuration("interval")
			}
			schedule := app.Config.Refresh.Schedule
			if cmd.Flags().Changed("schedule") {
				schedule, _ = cmd.Flags().GetString("schedule")
			}
			count, _ := cmd.Flags().GetInt("count")
			record, _ := cmd.Flags().GetBool("record")
			dbPath, _ := cmd.Flags().GetString("db")

			metricsEnabled := app.Config.Metrics.Enabled
			if cmd.Flags().Changed("metrics") {
				metricsEnabled, _ = cmd.Flags().GetBool("metrics")
			}
			metricsAddr := app.Config.Metrics.Addr
			if cmd.Flags().Changed("metrics-addr") {
				metricsAddr, _ = cmd.Flags().GetString("metrics-addr")
			}

			w := &watcher{
				app:     app,
				cmd:     cmd,
				output:  output,
				engine:  pipeline.NewEngine(1, app.params(cmd)),
				breaker: resilience.NewCircuitBreaker(app.sourceConfig(cmd).Kind, resilience.DefaultCircuitBreakerConfig()),
				limit:   count,
				done:    make(chan struct{}),
			}
			w.breaker.OnStateChange = func(name string, from, to resilience.CircuitState) {
				app.Logger.Warn().Str("source", name).Str("from", string(from)).Str("to", string(to)).
					Msg("Source circuit state changed")
			}

			var serverErr <-chan error
			if metricsEnabled {
				w.metrics = metrics.New()
				srv := metrics.NewServer(metricsAddr, w.metrics)
				serverErr = srv.Start()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				app.Logger.Info().Str("addr", metricsAddr).Msg("Metrics server started")
			}

			if record {
				if dbPath == "" {
					dbPath = defaultSignalDB(cmd)
				}
				st, err := store.NewSQLiteStore(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				w.store = st
			}

			sched := scheduler.New(w.cycle, app.Logger)
			if schedule != "" {
				if err := sched.Schedule(schedule); err != nil {
					return err
				}
			} else if err := sched.Every(interval); err != nil {
				return err
			}

			if !utils.IsMarketOpen() && !output.IsStructured() {
				output.Warning("NSE market %s; refreshes may repeat the last session",
					output.MarketStatus(utils.GetMarketStatus()))
			}

			if err := sched.RunNow(ctx); err != nil {
				output.Error("Evaluation failed: %v", err)
			}
			if w.finished() {
				return nil
			}

			sched.Start()
			defer sched.Stop()

			select {
			case <-ctx.Done():
				output.Dim("Stopped after %d cycles", sched.Runs())
			case <-w.done:
			case err := <-serverErr:
				return err
			}
			return nil
		},
	}

	cmd.Flags().Duration("interval", 0, "refresh interval (default from config)")
	cmd.Flags().String("schedule", "", "cron refresh schedule, overrides --interval")
	cmd.Flags().Int("count", 0, "stop after N evaluations (0 = until interrupted)")
	cmd.Flags().Bool("record", false, "store every evaluation in the signal history")
	cmd.Flags().String("db", "", "signal history database (default: <config dir>/signals.db)")
	cmd.Flags().Bool("metrics", false, "serve Prometheus metrics")
	cmd.Flags().String("metrics-addr", "", "metrics listen address (default from config)")

	return cmd
}

// watcher runs one evaluation per scheduler tick.
type watcher struct {
	app     *App
	cmd     *cobra.Command
	output  *Output
	engine  *pipeline.Engine
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	store   store.DataStore

	mu    sync.Mutex
	runs  int
	limit int
	done  chan struct{}
	once  sync.Once
}

var fetchRetry = utils.RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    200 * time.Millisecond,
	MaxDelay:        2 * time.Second,
	BackoffFactor:   2.0,
	RetryableErrors: []error{apperrors.ErrDatabaseError, apperrors.ErrTimeout},
}

func (w *watcher) cycle(ctx context.Context, cycleID string) error {
	logger := logging.FromContext(ctx)
	kind := w.app.sourceConfig(w.cmd).Kind

	session, err := resilience.ExecuteWithResult(w.breaker, func() (models.Session, error) {
		return utils.RetryWithResult(ctx, fetchRetry, func() (models.Session, error) {
			return w.app.fetchSession(ctx, w.cmd)
		})
	})
	if err != nil {
		if w.metrics != nil {
			w.metrics.ObserveSourceError(kind)
		}
		w.count()
		return err
	}

	start := time.Now()
	outcome := w.engine.AnalyzeAll(ctx, []models.Session{session})[0]
	took := time.Since(start)
	defer w.count()
	if outcome.Err != nil {
		return outcome.Err
	}

	report := outcome.Report
	res := report.Result
	logging.LogSignal(logging.WithSymbol(logger, report.Symbol), report.Symbol,
		string(res.Signal), res.Confidence, res.CurrentRSI, report.LastPrice())

	if w.metrics != nil {
		w.metrics.ObserveResult(res, report.LastPrice(), took)
	}

	if w.store != nil {
		rec := &store.SignalRecord{
			ID:                  uuid.New().String(),
			CycleID:             cycleID,
			Timestamp:           report.GeneratedAt,
			Symbol:              report.Symbol,
			Price:               report.LastPrice(),
			Signal:              res.Signal,
			Confidence:          res.Confidence,
			RSI:                 res.CurrentRSI,
			Position:            res.Position,
			BreakoutProbability: res.BreakoutProbability,
			Recommendations:     res.Recommendations,
		}
		if err := w.store.SaveSignal(ctx, rec); err != nil {
			logger.Warn().Err(err).Msg("Failed to record signal")
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.output.IsStructured() {
		trimmed := *report
		trimmed.Candles = nil
		return w.output.Structured(trimmed)
	}
	renderReport(w.output, report)
	w.output.Println()
	return nil
}

// count records a finished cycle and signals done once the limit is hit.
func (w *watcher) count() {
	w.mu.Lock()
	w.runs++
	reached := w.limit > 0 && w.runs >= w.limit
	w.mu.Unlock()
	if reached {
		w.once.Do(func() { close(w.done) })
	}
}

func (w *watcher) finished() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func defaultSignalDB(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("config")
	return filepath.Join(filepath.Dir(config.ConfigPath(dir)), "signals.db")
}
