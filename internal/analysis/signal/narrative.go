package signal

import (
	"fmt"
	"math"
	"strings"

	"nifty-agent/internal/analysis"
	"nifty-agent/internal/analysis/indicators"
)

// TrendThreshold is the session move, in percent, beyond which the trend is
// called bullish or bearish.
const TrendThreshold = 0.5

func marketCondition(pos analysis.PricePosition, change float64) string {
	var b strings.Builder

	switch pos.Label {
	case analysis.AtSupport, analysis.NearSupport:
		fmt.Fprintf(&b, "Price is %s key support level (%.2f). ", proximityVerb(pos.Label), pos.NearestSupport)
	case analysis.AtResistance, analysis.NearResistance:
		fmt.Fprintf(&b, "Price is %s key resistance level (%.2f). ", proximityVerb(pos.Label), pos.NearestResistance)
	default:
		fmt.Fprintf(&b, "Price is trading in the middle zone between support (%.2f) and resistance (%.2f). ",
			pos.NearestSupport, pos.NearestResistance)
	}

	switch {
	case change > TrendThreshold:
		b.WriteString("Strong bullish momentum observed.")
	case change < -TrendThreshold:
		b.WriteString("Strong bearish momentum observed.")
	default:
		b.WriteString("Consolidation phase detected.")
	}

	return b.String()
}

func proximityVerb(label analysis.PositionLabel) string {
	if label.IsAtLevel() {
		return "at"
	}
	return "approaching"
}

func rsiAnalysis(condition analysis.RSICondition, rsi, momentum float64) string {
	switch condition {
	case analysis.Overbought:
		text := fmt.Sprintf("RSI is in overbought territory at %.2f, suggesting potential selling pressure. ", rsi)
		if momentum < 0 {
			return text + "Momentum is turning negative, increasing reversal probability."
		}
		return text + "However, strong momentum may push prices higher before reversal."
	case analysis.Oversold:
		text := fmt.Sprintf("RSI is in oversold territory at %.2f, suggesting potential buying opportunity. ", rsi)
		if momentum > 0 {
			return text + "Momentum is turning positive, increasing bounce probability."
		}
		return text + "However, continued weakness may push prices lower before bounce."
	default:
		text := fmt.Sprintf("RSI is at %.2f, indicating balanced market conditions. ", rsi)
		if math.Abs(momentum) > 3 {
			direction := "Bearish"
			if momentum > 0 {
				direction = "Bullish"
			}
			return text + direction + " momentum building."
		}
		return text + "Limited directional momentum at present."
	}
}

func confluenceZone(label analysis.PositionLabel, condition analysis.RSICondition) string {
	switch {
	case label.IsAtLevel() && condition.IsExtreme():
		return fmt.Sprintf("Strong confluence detected! Price at key level with %s RSI creates high-probability setup.",
			strings.ToLower(string(condition)))
	case label.IsAtLevel():
		return "Price at key level. Watch for RSI confirmation for stronger signal."
	case condition.IsExtreme():
		return fmt.Sprintf("RSI %s. Wait for price to reach key level for better entry.",
			strings.ToLower(string(condition)))
	default:
		return "No strong confluence zone identified. Wait for clearer setup."
	}
}

// Stop-loss offsets applied beyond the entry level.
const (
	longStopRatio  = 0.995
	shortStopRatio = 1.005
)

func recommendations(sig analysis.Signal, pos analysis.PricePosition) []string {
	switch {
	case sig.IsBuy():
		return []string{
			fmt.Sprintf("Consider long position near %.2f", pos.NearestSupport),
			fmt.Sprintf("Set stop loss below %.2f", indicators.Round2(pos.NearestSupport*longStopRatio)),
			fmt.Sprintf("Target resistance at %.2f", pos.NearestResistance),
		}
	case sig.IsSell():
		return []string{
			fmt.Sprintf("Consider short position near %.2f", pos.NearestResistance),
			fmt.Sprintf("Set stop loss above %.2f", indicators.Round2(pos.NearestResistance*shortStopRatio)),
			fmt.Sprintf("Target support at %.2f", pos.NearestSupport),
		}
	default:
		return []string{
			"Wait for clearer signal before entering",
			fmt.Sprintf("Watch %.2f and %.2f", pos.NearestSupport, pos.NearestResistance),
			"Monitor RSI for divergence patterns",
		}
	}
}
