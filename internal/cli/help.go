package cli

import (
	"github.com/spf13/cobra"
)

// addHelpCommands adds help and documentation commands.
func addHelpCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newExamplesCmd())
}

type workflow struct {
	title    string
	commands []string
}

var workflows = []workflow{
	{
		title: "Quick Look",
		commands: []string{
			"agent analyze                        # Full report on the simulated session",
			"agent levels --high 24550 --low 24450",
			"agent position --price 24572.10      # Exactly on A1: AT_RESISTANCE",
		},
	},
	{
		title: "Tune RSI",
		commands: []string{
			"agent rsi --period 9 --smoothing 3   # Faster, smoothed RSI",
			"agent analyze --overbought 80 --oversold 20",
		},
	},
	{
		title: "Replay a Session",
		commands: []string{
			"agent export day.csv --seed 42       # Freeze a simulated session",
			"agent analyze --source csv --path day.csv",
			"agent export day.db --format sqlite --seed 42",
			"agent analyze --source sqlite --path day.db --json",
		},
	},
	{
		title: "Live Refresh",
		commands: []string{
			"agent watch --interval 30s           # Re-evaluate every 30 seconds",
			"agent watch --record --metrics       # Keep history and serve /metrics",
			"agent history --since 1h             # Signals from the last hour",
		},
	},
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			for _, w := range workflows {
				output.Info("%s", w.title)
				for _, c := range w.commands {
					output.Printf("  %s\n", c)
				}
				output.Println()
			}
			return nil
		},
	}
}
