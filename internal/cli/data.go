package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nifty-agent/internal/analysis"
	"nifty-agent/internal/source"
	"nifty-agent/internal/store"
)

// addDataCommands adds signal history and candle export commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded signals",
		Long:  "List evaluations stored by 'agent watch --record', newest first.",
		Example: `  agent history
  agent history --signal STRONG_BUY --since 24h
  agent history --limit 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			dbPath, _ := cmd.Flags().GetString("db")
			sig, _ := cmd.Flags().GetString("signal")
			since, _ := cmd.Flags().GetDuration("since")
			limit, _ := cmd.Flags().GetInt("limit")

			if dbPath == "" {
				dbPath = defaultSignalDB(cmd)
			}
			st, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			filter := store.SignalFilter{
				Signal: analysis.Signal(strings.ToUpper(sig)),
				Limit:  limit,
			}
			if cmd.Flags().Changed("symbol") {
				filter.Symbol = app.sourceConfig(cmd).Symbol
			}
			if since > 0 {
				filter.StartDate = time.Now().Add(-since)
			}

			records, err := st.GetSignals(ctx, filter)
			if err != nil {
				return err
			}

			if output.IsStructured() {
				if records == nil {
					records = []store.SignalRecord{}
				}
				return output.Structured(records)
			}

			if len(records) == 0 {
				output.Dim("No signals recorded")
				return nil
			}

			table := NewTable(output, "TIME", "SYMBOL", "PRICE", "SIGNAL", "CONF", "RSI", "POSITION", "BREAKOUT")
			for _, r := range records {
				table.AddRow(
					FormatDateTime(r.Timestamp),
					r.Symbol,
					FormatLevel(r.Price),
					output.SignalBadge(r.Signal),
					FormatConfidence(r.Confidence),
					fmt.Sprintf("%.2f", r.RSI),
					output.PositionBadge(r.Position),
					FormatConfidence(r.BreakoutProbability),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("db", "", "signal history database (default: <config dir>/signals.db)")
	cmd.Flags().String("signal", "", "only this signal (STRONG_BUY, BUY, NEUTRAL, SELL, STRONG_SELL)")
	cmd.Flags().Duration("since", 0, "only signals newer than this")
	cmd.Flags().Int("limit", 20, "maximum records (0 = all)")

	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the session candles to CSV or SQLite",
		Long: `Write the current session's candles to a CSV file or a SQLite database.

The output can be fed back with --source csv or --source sqlite. Use "-" to
write CSV to stdout.`,
		Example: `  agent export session.csv --seed 42
  agent export candles.db --format sqlite`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			format, _ := cmd.Flags().GetString("format")
			target := args[0]

			session, err := app.fetchSession(ctx, cmd)
			if err != nil {
				return err
			}

			switch strings.ToLower(format) {
			case "csv":
				if target == "-" {
					return source.WriteCSV(cmd.OutOrStdout(), session.Candles)
				}
				f, err := os.Create(target)
				if err != nil {
					return fmt.Errorf("create %s: %w", target, err)
				}
				if err := source.WriteCSV(f, session.Candles); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
			case "sqlite":
				st, err := store.NewSQLiteStore(target)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.SaveCandles(ctx, session.Symbol, string(session.Timeframe), session.Candles); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown export format %q (want csv or sqlite)", format)
			}

			if output.IsStructured() {
				return output.Structured(map[string]interface{}{
					"path":    target,
					"format":  format,
					"candles": len(session.Candles),
				})
			}
			output.Success("✓ Exported %d candles to %s", len(session.Candles), target)
			return nil
		},
	}

	cmd.Flags().String("format", "csv", "output format: csv or sqlite")

	return cmd
}
