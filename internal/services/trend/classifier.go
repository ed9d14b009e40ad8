package trend

import (
	"math"

	"EMAScan/internal/domain/models"
)

// Classification is the category and icon of one distance from EMA.
type Classification struct {
	Category models.TrendCategory
	Icon     models.TrendIcon
}

// Classify maps a percentage distance from EMA50 to its trend category.
// Boundaries resolve to the more extreme side. pct must be finite.
func Classify(pct float64) Classification {
	switch {
	case pct > 10:
		return Classification{models.TrendVeryBullish, models.IconStrongUp}
	case pct > 5:
		return Classification{models.TrendBullish, models.IconUp}
	case pct > 0:
		return Classification{models.TrendSlightlyBullish, models.IconUp}
	case pct > -5:
		return Classification{models.TrendNeutral, models.IconFlat}
	case pct > -10:
		return Classification{models.TrendSlightlyBearish, models.IconDown}
	default:
		return Classification{models.TrendBearish, models.IconStrongDown}
	}
}

// IsValidDistance reports whether pct can be passed to Classify.
func IsValidDistance(pct float64) bool {
	return !math.IsNaN(pct) && !math.IsInf(pct, 0)
}

// Sample builds a classified sample for one timeframe.
func Sample(tf models.Timeframe, pct float64, above bool) models.TimeframeSample {
	c := Classify(pct)
	return models.TimeframeSample{
		Timeframe: tf,
		Pct:       pct,
		Trend:     c.Category,
		Icon:      c.Icon,
		Above:     above,
	}
}
