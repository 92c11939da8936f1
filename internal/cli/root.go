package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nifty-agent/internal/analysis"
	"nifty-agent/internal/config"
	"nifty-agent/internal/logging"
	"nifty-agent/internal/models"
	"nifty-agent/internal/source"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	// newSource builds the candle source for a command run.
	newSource func(config.SourceConfig) (source.Source, error)
}

// NewRootCmd creates the root command for the CLI. When cfg is nil the
// configuration is loaded from --config (or the default directory) before
// any command runs, and the logger is rebuilt from it.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		newSource: source.New,
	}

	rootCmd := &cobra.Command{
		Use:   "agent",
		Short: "Nifty pivot levels and RSI signal agent",
		Long: `agent derives a ladder of support and resistance levels from the first
candle of the session, computes Wilder RSI over the session's closes, and
combines both into a BUY/SELL/NEUTRAL signal with confidence, breakout
probability and recommendations.

Candles come from the built-in simulator, a CSV file or a SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				dir, _ := cmd.Flags().GetString("config")
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.Logger = logging.NewLoggerWithConfig(logConfig(loaded.Logging))
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config directory (default: ~/.config/nifty-agent)")
	pf.Bool("json", false, "output in JSON format")
	pf.Bool("yaml", false, "output in YAML format")
	pf.Bool("debug", false, "enable debug logging")
	pf.Bool("no-color", false, "disable coloured output")

	// Source overrides
	pf.String("source", "", "candle source: sim, csv or sqlite")
	pf.String("path", "", "CSV file or SQLite database for the source")
	pf.String("symbol", "", "instrument symbol")
	pf.Int64("seed", 0, "simulator seed (0 = time seeded)")

	// RSI parameter overrides, clamped to the settings ranges
	pf.Int("period", 0, "RSI period (5-50)")
	pf.Int("overbought", 0, "overbought threshold (60-90)")
	pf.Int("oversold", 0, "oversold threshold (10-40)")
	pf.Int("smoothing", 0, "RSI smoothing window (1-10)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	addAnalysisCommands(rootCmd, app)
	addWatchCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addHelpCommands(rootCmd)

	return rootCmd
}

// Execute runs the CLI with configuration loaded from disk.
func Execute(ctx context.Context) error {
	return NewRootCmd(nil, zerolog.Nop()).ExecuteContext(ctx)
}

func logConfig(c config.LoggingConfig) logging.LogConfig {
	lc := logging.DefaultLogConfig()
	lc.Level = c.Level
	lc.Console = c.Console
	lc.File = c.File
	if c.FilePath != "" {
		lc.FilePath = c.FilePath
	}
	return lc
}

// params resolves the analysis parameters from config and flags.
func (a *App) params(cmd *cobra.Command) analysis.Params {
	ac := a.Config.Analysis
	flags := cmd.Flags()
	if flags.Changed("period") {
		ac.Period, _ = flags.GetInt("period")
	}
	if flags.Changed("overbought") {
		ac.Overbought, _ = flags.GetInt("overbought")
	}
	if flags.Changed("oversold") {
		ac.Oversold, _ = flags.GetInt("oversold")
	}
	if flags.Changed("smoothing") {
		ac.Smoothing, _ = flags.GetInt("smoothing")
	}
	return ac.Clamp().Params()
}

// sourceConfig resolves the candle source settings from config and flags.
func (a *App) sourceConfig(cmd *cobra.Command) config.SourceConfig {
	sc := a.Config.Source
	flags := cmd.Flags()
	if flags.Changed("source") {
		sc.Kind, _ = flags.GetString("source")
	}
	if flags.Changed("path") {
		sc.Path, _ = flags.GetString("path")
	}
	if flags.Changed("symbol") {
		sc.Symbol, _ = flags.GetString("symbol")
	}
	if flags.Changed("seed") {
		sc.Seed, _ = flags.GetInt64("seed")
	}
	return sc
}

// fetchSession pulls one candle sequence from the configured source.
func (a *App) fetchSession(ctx context.Context, cmd *cobra.Command) (models.Session, error) {
	sc := a.sourceConfig(cmd)
	src, err := a.newSource(sc)
	if err != nil {
		return models.Session{}, err
	}
	if c, ok := src.(interface{ Close() error }); ok {
		defer c.Close()
	}

	start := time.Now()
	candles, err := src.Candles(ctx)
	logging.LogSourceFetch(logging.WithSource(a.Logger, src.Name()), src.Name(), len(candles), time.Since(start), err)
	if err != nil {
		return models.Session{}, err
	}

	return models.Session{
		Symbol:    sc.Symbol,
		Exchange:  models.NSE,
		Timeframe: models.Timeframe(sc.Timeframe),
		Candles:   candles,
	}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Structured(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("nifty-agent v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the agent configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Structured(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			path := config.ConfigPath(dir)
			if output.IsStructured() {
				return output.Structured(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsStructured() {
				return output.Structured(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Analysis")
	output.Printf("  Period:      %d\n", cfg.Analysis.Period)
	output.Printf("  Overbought:  %d\n", cfg.Analysis.Overbought)
	output.Printf("  Oversold:    %d\n", cfg.Analysis.Oversold)
	output.Printf("  Smoothing:   %d\n", cfg.Analysis.Smoothing)
	output.Println()

	output.Bold("Source")
	output.Printf("  Kind:        %s\n", cfg.Source.Kind)
	if cfg.Source.Path != "" {
		output.Printf("  Path:        %s\n", cfg.Source.Path)
	}
	output.Printf("  Symbol:      %s\n", cfg.Source.Symbol)
	output.Printf("  Timeframe:   %s\n", cfg.Source.Timeframe)
	output.Println()

	output.Bold("Refresh")
	if cfg.Refresh.Schedule != "" {
		output.Printf("  Schedule:    %s\n", cfg.Refresh.Schedule)
	} else {
		output.Printf("  Interval:    %s\n", cfg.Refresh.Interval)
	}
	output.Println()

	output.Bold("Metrics")
	output.Printf("  Enabled:     %v\n", cfg.Metrics.Enabled)
	output.Printf("  Address:     %s\n", cfg.Metrics.Addr)
}
