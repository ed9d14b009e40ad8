package models

// Asset is one per-timeframe snapshot produced by the remote analysis service.
// The client never mutates it.
type Asset struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Rank         int     `json:"rank"`
	CurrentPrice float64 `json:"current_price"`
	EMA50        float64 `json:"ema50"`
	PctFromEMA50 float64 `json:"pct_from_ema50"`
	AboveEMA50   bool    `json:"above_ema50"`
	Timeframe    string  `json:"timeframe,omitempty"`
}

// TrendCategory is the discrete trend bucket of a distance from EMA.
type TrendCategory string

const (
	TrendVeryBullish     TrendCategory = "very-bullish"
	TrendBullish         TrendCategory = "bullish"
	TrendSlightlyBullish TrendCategory = "slightly-bullish"
	TrendNeutral         TrendCategory = "neutral"
	TrendSlightlyBearish TrendCategory = "slightly-bearish"
	TrendBearish         TrendCategory = "bearish"
)

// IsBullish reports whether the category counts toward the bullish side.
func (c TrendCategory) IsBullish() bool {
	return c == TrendVeryBullish || c == TrendBullish || c == TrendSlightlyBullish
}

// IsBearish reports whether the category counts toward the bearish side.
func (c TrendCategory) IsBearish() bool {
	return c == TrendBearish || c == TrendSlightlyBearish
}

// TrendIcon is a directional tag for a category.
type TrendIcon string

const (
	IconStrongUp   TrendIcon = "strong-up"
	IconUp         TrendIcon = "up"
	IconFlat       TrendIcon = "flat"
	IconDown       TrendIcon = "down"
	IconStrongDown TrendIcon = "strong-down"
)

// Primary trend labels.
const (
	PrimaryBullish = "Bullish"
	PrimaryBearish = "Bearish"
	PrimaryNeutral = "Neutral"
)

// TimeframeSample is an asset's distance from EMA on one timeframe.
type TimeframeSample struct {
	Timeframe Timeframe     `json:"timeframe"`
	Pct       float64       `json:"pct"`
	Trend     TrendCategory `json:"trend"`
	Icon      TrendIcon     `json:"icon"`
	Above     bool          `json:"above"`
}

// AlignmentResult summarises how many timeframes agree on a direction.
type AlignmentResult struct {
	Bullish        int     `json:"bullish_timeframes"`
	Bearish        int     `json:"bearish_timeframes"`
	Total          int     `json:"total_timeframes"`
	AlignmentScore float64 `json:"alignment_score"`
	PrimaryTrend   string  `json:"primary_trend"`
}

// ClassifiedAsset is an Asset annotated with derived fields.
type ClassifiedAsset struct {
	Asset
	// FourHourPct is the 4h distance from EMA50, nil when the service did not provide one.
	FourHourPct *float64                      `json:"four_hour_pct_from_ema,omitempty"`
	Trend       TrendCategory                 `json:"trend"`
	Icon        TrendIcon                     `json:"icon"`
	Samples     map[Timeframe]TimeframeSample `json:"timeframe_data"`
	Alignment   AlignmentResult               `json:"alignment"`
	// IntradayHeadline marks an asset whose headline distance comes from an intraday
	// timeframe because no daily or weekly value was sent.
	IntradayHeadline bool `json:"intraday_headline,omitempty"`
}
