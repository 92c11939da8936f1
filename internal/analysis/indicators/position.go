package indicators

import (
	"nifty-agent/internal/analysis"
)

// ProximityRatio is the fraction of price within which price counts as
// sitting on a level.
const ProximityRatio = 0.001

// ClassifyPosition locates price relative to the ladder.
//
// The nearest resistance is the lowest rung at or above price, falling back
// to the first rung (A1) when price is above the whole ladder. The nearest
// support is the highest rung at or below price, falling back to the last
// rung (B4) when price is below the whole ladder. The two fallbacks are
// not symmetric.
func ClassifyPosition(price float64, levels analysis.LevelSet) analysis.PricePosition {
	nearestResistance := levels.Resistance[0]
	for _, level := range levels.Resistance {
		if level >= price {
			nearestResistance = level
			break
		}
	}

	nearestSupport := levels.Support[analysis.LevelCount-1]
	for _, level := range levels.Support {
		if level <= price {
			nearestSupport = level
			break
		}
	}

	distR := abs(price - nearestResistance)
	distS := abs(price - nearestSupport)
	threshold := price * ProximityRatio

	var label analysis.PositionLabel
	switch {
	case distR < threshold:
		label = analysis.AtResistance
	case distS < threshold:
		label = analysis.AtSupport
	case distR < distS:
		label = analysis.NearResistance
	default:
		label = analysis.NearSupport
	}

	return analysis.PricePosition{
		Price:             price,
		NearestSupport:    nearestSupport,
		NearestResistance: nearestResistance,
		Label:             label,
	}
}
