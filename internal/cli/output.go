// Package cli provides the command-line interface for the analysis agent.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"nifty-agent/internal/analysis"
	"nifty-agent/pkg/utils"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	yamlMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance. Colour follows the terminal
// (fatih/color honours NO_COLOR and non-tty stdout) and --no-color.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	yamlMode, _ := cmd.Flags().GetBool("yaml")
	noColor, _ := cmd.Flags().GetBool("no-color")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		yamlMode:     yamlMode && !jsonMode,
		colorEnabled: !jsonMode && !yamlMode && !noColor && !color.NoColor,
	}
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// IsStructured returns true for JSON or YAML output.
func (o *Output) IsStructured() bool {
	return o.jsonMode || o.yamlMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// YAML outputs data as YAML.
func (o *Output) YAML(data interface{}) error {
	encoder := yaml.NewEncoder(o.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// Structured writes data in the selected machine-readable format.
func (o *Output) Structured(data interface{}) error {
	if o.yamlMode {
		return o.YAML(data)
	}
	return o.JSON(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.colored(color.New(color.FgGreen), format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.colored(color.New(color.FgRed), format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.colored(color.New(color.FgYellow), format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.colored(color.New(color.FgCyan), format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.colored(color.New(color.Bold), format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.colored(color.New(color.Faint), format, args...)
}

func (o *Output) colored(c *color.Color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(o.writer, o.paint(c, msg))
}

// paint renders text with c when colour is enabled.
func (o *Output) paint(c *color.Color, text string) string {
	if !o.colorEnabled {
		return text
	}
	c.EnableColor()
	return c.Sprint(text)
}

// Green returns green colored text.
func (o *Output) Green(text string) string {
	return o.paint(color.New(color.FgGreen), text)
}

// Red returns red colored text.
func (o *Output) Red(text string) string {
	return o.paint(color.New(color.FgRed), text)
}

// Yellow returns yellow colored text.
func (o *Output) Yellow(text string) string {
	return o.paint(color.New(color.FgYellow), text)
}

// Cyan returns cyan colored text.
func (o *Output) Cyan(text string) string {
	return o.paint(color.New(color.FgCyan), text)
}

// BoldText returns bold text.
func (o *Output) BoldText(text string) string {
	return o.paint(color.New(color.Bold), text)
}

// DimText returns dimmed text.
func (o *Output) DimText(text string) string {
	return o.paint(color.New(color.Faint), text)
}

// SignalBadge renders a trading signal.
func (o *Output) SignalBadge(sig analysis.Signal) string {
	switch sig {
	case analysis.StrongBuy:
		return o.paint(color.New(color.FgHiWhite, color.BgGreen, color.Bold), " STRONG BUY ")
	case analysis.Buy:
		return o.Green("▲ BUY")
	case analysis.Sell:
		return o.Red("▼ SELL")
	case analysis.StrongSell:
		return o.paint(color.New(color.FgHiWhite, color.BgRed, color.Bold), " STRONG SELL ")
	default:
		return o.Yellow("● NEUTRAL")
	}
}

// PositionBadge renders a price position label.
func (o *Output) PositionBadge(p analysis.PositionLabel) string {
	text := strings.ReplaceAll(string(p), "_", " ")
	switch p {
	case analysis.AtResistance, analysis.NearResistance:
		return o.Red(text)
	case analysis.AtSupport, analysis.NearSupport:
		return o.Green(text)
	default:
		return text
	}
}

// RSIConditionBadge renders an RSI condition.
func (o *Output) RSIConditionBadge(c analysis.RSICondition) string {
	text := strings.ReplaceAll(string(c), "_", " ")
	switch c {
	case analysis.Overbought:
		return o.Red(text)
	case analysis.Oversold:
		return o.Green(text)
	case analysis.SlightlyOverbought, analysis.SlightlyOversold:
		return o.Yellow(text)
	default:
		return text
	}
}

// RSIValue colours an RSI reading against the thresholds.
func (o *Output) RSIValue(v float64, t analysis.Thresholds) string {
	text := fmt.Sprintf("%.2f", v)
	switch {
	case v > t.Overbought:
		return o.Red(text)
	case v < t.Oversold:
		return o.Green(text)
	default:
		return text
	}
}

// Change colours a signed value.
func (o *Output) Change(v float64, text string) string {
	switch {
	case v > 0:
		return o.Green(text)
	case v < 0:
		return o.Red(text)
	default:
		return text
	}
}

// MarketStatus renders the market session state.
func (o *Output) MarketStatus(status utils.MarketStatus) string {
	switch status {
	case utils.MarketOpen:
		return o.Green("● OPEN")
	case utils.MarketPreOpen:
		return o.Yellow("● PRE-OPEN")
	default:
		return o.Red("● CLOSED")
	}
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				if n := visibleLen(cell); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}

	t.printRow(t.headers, widths, true)
	t.printSeparator(widths)

	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	var parts []string
	for i, cell := range cells {
		if i < len(widths) {
			padding := widths[i] - visibleLen(cell)
			if padding < 0 {
				padding = 0
			}
			padded := cell + strings.Repeat(" ", padding)
			if isHeader {
				padded = t.output.BoldText(padded)
			}
			parts = append(parts, padded)
		}
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	var parts []string
	for _, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
	}
	t.output.Println(t.output.DimText(strings.Join(parts, "──")))
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes ANSI escape codes from a string.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// visibleLen counts the runes a terminal displays.
func visibleLen(s string) int {
	return len([]rune(stripANSI(s)))
}

// Box draws a box around content.
func (o *Output) Box(title string, content []string) {
	maxLen := visibleLen(title)
	for _, line := range content {
		if n := visibleLen(line); n > maxLen {
			maxLen = n
		}
	}

	width := maxLen + 4
	border := strings.Repeat("─", width-2)

	o.Println(o.DimText("┌" + border + "┐"))
	o.Printf("%s %s%s %s\n", o.DimText("│"), o.BoldText(title), strings.Repeat(" ", width-4-visibleLen(title)), o.DimText("│"))
	o.Println(o.DimText("├" + border + "┤"))
	for _, line := range content {
		padding := width - 4 - visibleLen(line)
		o.Printf("%s %s%s %s\n", o.DimText("│"), line, strings.Repeat(" ", padding), o.DimText("│"))
	}
	o.Println(o.DimText("└" + border + "┘"))
}
