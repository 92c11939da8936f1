package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nifty-agent/internal/analysis"
	"nifty-agent/internal/analysis/indicators"
	"nifty-agent/internal/analysis/pipeline"
	"nifty-agent/internal/analysis/signal"
	"nifty-agent/internal/models"
	"nifty-agent/pkg/utils"
)

const commandTimeout = 30 * time.Second

// addAnalysisCommands adds the one-shot analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLevelsCmd(app))
	rootCmd.AddCommand(newRSICmd(app))
	rootCmd.AddCommand(newPositionCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
}

func newLevelsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Support and resistance ladder",
		Long: `Compute the four resistance (A1-A4) and four support (B1-B4) levels.

The reference candle is the first candle of the session, or the range given
with --high and --low.`,
		Example: `  agent levels
  agent levels --high 24550 --low 24450
  agent levels --source csv --path nifty.csv --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			levels, session, err := app.resolveLevels(ctx, cmd)
			if err != nil {
				return err
			}

			if output.IsStructured() {
				return output.Structured(levels)
			}

			var price float64
			if last, ok := session.Last(); ok {
				price = last.Close
			}
			renderLevels(output, levels, price)
			return nil
		},
	}

	cmd.Flags().Float64("high", 0, "reference candle high")
	cmd.Flags().Float64("low", 0, "reference candle low")

	return cmd
}

func newRSICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rsi",
		Short: "Wilder RSI series for the session",
		Example: `  agent rsi
  agent rsi --period 9 --smoothing 3 --last 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			last, _ := cmd.Flags().GetInt("last")
			params := app.params(cmd)

			session, err := app.fetchSession(ctx, cmd)
			if err != nil {
				return err
			}

			series := indicators.ComputeRSI(session.Candles, params.Period, params.Smoothing)
			if last > 0 && len(series) > last {
				series = series[len(series)-last:]
			}

			if output.IsStructured() {
				return output.Structured(map[string]interface{}{
					"symbol": session.Symbol,
					"params": params,
					"rsi":    series,
				})
			}

			if len(series) == 0 {
				output.Warning("Not enough candles for RSI(%d): have %d, need %d",
					params.Period, len(session.Candles), params.Period+1)
				return nil
			}

			t := params.Thresholds()
			current := series[len(series)-1].Value
			output.Bold("%s RSI(%d) smoothing %d", session.Symbol, params.Period, params.Smoothing)
			output.Printf("Current: %s  %s  momentum %s\n\n",
				output.RSIValue(current, t),
				output.RSIConditionBadge(signal.ClassifyRSI(current, t)),
				utils.FormatSigned(signal.Momentum(series)))

			table := NewTable(output, "TIME", "RSI", "CONDITION")
			for _, p := range series {
				table.AddRow(FormatTime(p.Timestamp), output.RSIValue(p.Value, t),
					output.RSIConditionBadge(signal.ClassifyRSI(p.Value, t)))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().Int("last", 20, "show only the last N points (0 = all)")

	return cmd
}

func newPositionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Classify a price against the level ladder",
		Example: `  agent position
  agent position --price 24520
  agent position --high 24550 --low 24450 --price 24572.10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			levels, session, err := app.resolveLevels(ctx, cmd)
			if err != nil {
				return err
			}

			var price float64
			if cmd.Flags().Changed("price") {
				price, _ = cmd.Flags().GetFloat64("price")
			} else {
				if len(session.Candles) == 0 {
					if session, err = app.fetchSession(ctx, cmd); err != nil {
						return err
					}
				}
				last, ok := session.Last()
				if !ok {
					return fmt.Errorf("no candles to take a price from: %w", indicators.ErrInsufficientData)
				}
				price = last.Close
			}

			pos := indicators.ClassifyPosition(price, levels)
			if output.IsStructured() {
				return output.Structured(pos)
			}

			output.Box("Price Position", []string{
				fmt.Sprintf("Price       %s", FormatLevel(pos.Price)),
				fmt.Sprintf("Position    %s", output.PositionBadge(pos.Label)),
				fmt.Sprintf("Resistance  %s  (%s)", FormatLevel(pos.NearestResistance),
					utils.FormatSigned(pos.NearestResistance-pos.Price)),
				fmt.Sprintf("Support     %s  (%s)", FormatLevel(pos.NearestSupport),
					utils.FormatSigned(pos.NearestSupport-pos.Price)),
			})
			return nil
		},
	}

	cmd.Flags().Float64("price", 0, "price to classify (default: last close)")
	cmd.Flags().Float64("high", 0, "reference candle high")
	cmd.Flags().Float64("low", 0, "reference candle low")

	return cmd
}

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Full levels, RSI and signal report",
		Long: `Run one evaluation over the session: level ladder from the first candle,
RSI over all closes, price position of the last close, and the signal with
confidence, breakout probability and recommendations.`,
		Example: `  agent analyze
  agent analyze --seed 42 --period 9
  agent analyze --source sqlite --path candles.db --yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			withCandles, _ := cmd.Flags().GetBool("candles")

			session, err := app.fetchSession(ctx, cmd)
			if err != nil {
				return err
			}

			report, err := pipeline.AnalyzeSession(session, app.params(cmd))
			if err != nil {
				return err
			}

			if output.IsStructured() {
				if !withCandles {
					trimmed := *report
					trimmed.Candles = nil
					return output.Structured(trimmed)
				}
				return output.Structured(report)
			}

			renderReport(output, report)
			return nil
		},
	}

	cmd.Flags().Bool("candles", false, "include candles in JSON/YAML output")

	return cmd
}

// resolveLevels returns the ladder from --high/--low when given, otherwise
// from the first candle of a fetched session.
func (a *App) resolveLevels(ctx context.Context, cmd *cobra.Command) (analysis.LevelSet, models.Session, error) {
	flags := cmd.Flags()
	if flags.Changed("high") || flags.Changed("low") {
		if !flags.Changed("high") || !flags.Changed("low") {
			return analysis.LevelSet{}, models.Session{}, fmt.Errorf("--high and --low must be given together")
		}
		high, _ := flags.GetFloat64("high")
		low, _ := flags.GetFloat64("low")
		return indicators.ComputeLevels(high, low), models.Session{}, nil
	}

	session, err := a.fetchSession(ctx, cmd)
	if err != nil {
		return analysis.LevelSet{}, models.Session{}, err
	}
	levels, err := indicators.LevelsFromCandles(session.Candles)
	if err != nil {
		return analysis.LevelSet{}, models.Session{}, err
	}
	return levels, session, nil
}

// renderLevels prints the ladder. A non-zero price adds a distance column.
func renderLevels(output *Output, levels analysis.LevelSet, price float64) {
	output.Bold("Reference  H %s  L %s", FormatLevel(levels.ReferenceHigh), FormatLevel(levels.ReferenceLow))

	headers := []string{"LEVEL", "TYPE", "PRICE"}
	if price != 0 {
		headers = append(headers, "DISTANCE")
	}
	table := NewTable(output, headers...)
	for _, l := range levels.Ladder() {
		name := output.Red(l.Name)
		if l.Type == analysis.LevelSupport {
			name = output.Green(l.Name)
		}
		row := []string{name, string(l.Type), FormatLevel(l.Price)}
		if price != 0 {
			d := l.Price - price
			row = append(row, output.Change(-d, utils.FormatSigned(d)))
		}
		table.AddRow(row...)
	}
	table.Render()
}

// renderReport prints a full evaluation.
func renderReport(output *Output, r *pipeline.Report) {
	res := r.Result
	t := r.Params.Thresholds()

	title := fmt.Sprintf("%s  %s", r.Symbol, FormatDateTime(r.GeneratedAt))
	lines := []string{
		fmt.Sprintf("Market      %s", output.MarketStatus(utils.MarketStatusAt(r.GeneratedAt))),
		fmt.Sprintf("Price       %s  %s", FormatLevel(r.LastPrice()),
			output.Change(res.PriceChangePercent, utils.FormatPercent(res.PriceChangePercent))),
		fmt.Sprintf("Signal      %s  %s %s", output.SignalBadge(res.Signal),
			ConfidenceBar(res.Confidence, 20), FormatConfidence(res.Confidence)),
		fmt.Sprintf("RSI(%d)     %s  %s  momentum %s", r.Params.Period,
			output.RSIValue(res.CurrentRSI, t), output.RSIConditionBadge(res.RSICondition),
			utils.FormatSigned(res.RSIMomentum)),
		fmt.Sprintf("Position    %s", output.PositionBadge(res.Position)),
		fmt.Sprintf("Levels      R %s  S %s", FormatLevel(res.NearestResistance), FormatLevel(res.NearestSupport)),
		fmt.Sprintf("Breakout    %s  %s", FormatConfidence(res.BreakoutProbability), res.BreakoutDirection),
	}
	if vol := sessionVolume(r.Candles); vol > 0 {
		lines = append(lines, fmt.Sprintf("Volume      %s", utils.FormatQuantity(vol)))
	}
	output.Box(title, lines)
	output.Println()

	output.Printf("%s %s\n", output.BoldText("Market:"), res.MarketCondition)
	output.Printf("%s %s\n", output.BoldText("RSI:"), res.RSIAnalysis)
	output.Printf("%s %s\n", output.BoldText("Confluence:"), res.ConfluenceZone)
	output.Println()

	output.Bold("Recommendations")
	for _, rec := range res.Recommendations {
		output.Printf("  • %s\n", rec)
	}
	output.Println()

	renderLevels(output, r.Levels, r.LastPrice())
}

// sessionVolume sums candle volume; sources without volume report zero.
func sessionVolume(candles []models.Candle) int64 {
	var total int64
	for _, c := range candles {
		total += c.Volume
	}
	return total
}
