package trend

import "EMAScan/internal/domain/models"

// Score computes how many timeframes agree on a direction.
// Neutral samples count toward the total but toward neither side; ties are Neutral.
func Score(samples map[models.Timeframe]models.TimeframeSample) models.AlignmentResult {
	var res models.AlignmentResult
	for _, s := range samples {
		res.Total++
		switch {
		case s.Trend.IsBullish():
			res.Bullish++
		case s.Trend.IsBearish():
			res.Bearish++
		}
	}

	if res.Total > 0 {
		res.AlignmentScore = 100 * float64(max(res.Bullish, res.Bearish)) / float64(res.Total)
	}

	switch {
	case res.Bullish > res.Bearish:
		res.PrimaryTrend = models.PrimaryBullish
	case res.Bearish > res.Bullish:
		res.PrimaryTrend = models.PrimaryBearish
	default:
		res.PrimaryTrend = models.PrimaryNeutral
	}
	return res
}
