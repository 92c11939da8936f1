package cli

import (
	"fmt"
	"strings"
	"time"

	"nifty-agent/pkg/utils"
)

// FormatLevel formats an index level with Indian digit grouping.
func FormatLevel(v float64) string {
	return utils.FormatPoints(v)
}

// FormatTime formats a time in IST.
func FormatTime(t time.Time) string {
	return t.In(utils.IndiaLocation).Format("15:04")
}

// FormatDateTime formats a datetime in IST.
func FormatDateTime(t time.Time) string {
	return t.In(utils.IndiaLocation).Format("02-Jan-2006 15:04:05")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// FormatConfidence formats a confidence percentage.
func FormatConfidence(conf int) string {
	return fmt.Sprintf("%d%%", conf)
}

// FormatOHLC formats OHLC data.
func FormatOHLC(open, high, low, close float64) string {
	return fmt.Sprintf("O: %.2f  H: %.2f  L: %.2f  C: %.2f", open, high, low, close)
}

// ConfidenceBar renders a 0-100 value as a fixed-width bar.
func ConfidenceBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// PadRight pads a string to the right.
func PadRight(s string, length int) string {
	n := visibleLen(s)
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}

// PadLeft pads a string to the left.
func PadLeft(s string, length int) string {
	n := visibleLen(s)
	if n >= length {
		return s
	}
	return strings.Repeat(" ", length-n) + s
}
