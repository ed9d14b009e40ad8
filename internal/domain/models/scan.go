package models

import "encoding/json"

// ScanJob is the remote job status snapshot returned by /api/status.
type ScanJob struct {
	Running       bool    `json:"running"`
	Progress      int     `json:"progress"`
	Total         int     `json:"total"`
	CurrentItem   *string `json:"current_coin,omitempty"`
	StatusMessage string  `json:"status_message"`
}

// Finished reports whether the job has stopped after doing some work.
func (j ScanJob) Finished() bool { return !j.Running && j.Progress > 0 }

// Scan request bounds.
const (
	MinTopN     = 5
	MaxTopN     = 200
	DefaultTopN = 10
)

// ScanRequest is the body of POST /api/scan.
type ScanRequest struct {
	TopN     int  `json:"top_n"`
	UseCache bool `json:"use_cache"`
}

// Clamped returns a copy with TopN forced into [MinTopN, MaxTopN]; zero means default.
func (r ScanRequest) Clamped() ScanRequest {
	switch {
	case r.TopN == 0:
		r.TopN = DefaultTopN
	case r.TopN < MinTopN:
		r.TopN = MinTopN
	case r.TopN > MaxTopN:
		r.TopN = MaxTopN
	}
	return r
}

// StreamEventType tags a push stream event.
type StreamEventType string

const (
	EventCoinResult StreamEventType = "coin_result"
	EventComplete   StreamEventType = "complete"
	EventError      StreamEventType = "error"
)

// StreamEvent is one message of the /api/stream push stream.
type StreamEvent struct {
	Type  StreamEventType `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// RawSample is a per-timeframe entry of a coin's timeframe_data as sent on the wire.
// Pct is nil when the service had no data for the timeframe.
type RawSample struct {
	Pct   *float64 `json:"pct"`
	Trend string   `json:"trend,omitempty"`
	Above bool     `json:"above"`
}

// CoinResult is the per-asset result of a scan: one snapshot per evaluated timeframe.
type CoinResult struct {
	Symbol        string               `json:"symbol,omitempty"`
	Name          string               `json:"name,omitempty"`
	Rank          int                  `json:"rank,omitempty"`
	Weekly        *Asset               `json:"weekly,omitempty"`
	Daily         *Asset               `json:"daily,omitempty"`
	FourHour      *Asset               `json:"4h,omitempty"`
	TimeframeData map[string]RawSample `json:"timeframe_data,omitempty"`
}

// Primary returns the snapshot used as the asset's headline: weekly, then daily, then 4h.
func (c CoinResult) Primary() *Asset {
	a, _ := c.Headline()
	return a
}

// Headline returns the primary snapshot and the timeframe it was taken on.
// Both are zero when the result carries no snapshot.
func (c CoinResult) Headline() (*Asset, Timeframe) {
	switch {
	case c.Weekly != nil:
		return c.Weekly, TF1w
	case c.Daily != nil:
		return c.Daily, TF1d
	case c.FourHour != nil:
		return c.FourHour, TF4h
	}
	return nil, ""
}

// SymbolKey returns the join key of the result.
func (c CoinResult) SymbolKey() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	if p := c.Primary(); p != nil {
		return p.Symbol
	}
	return ""
}

// Summary carries the scan counters. The weekly counters win over the generic ones when set.
type Summary struct {
	TotalScanned     int    `json:"total_scanned"`
	TotalAboveWeekly int    `json:"total_above_weekly,omitempty"`
	TotalBelowWeekly int    `json:"total_below_weekly,omitempty"`
	TotalAbove       int    `json:"total_above,omitempty"`
	TotalBelow       int    `json:"total_below,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
}

// Above returns the number of assets above their EMA.
func (s Summary) Above() int {
	if s.TotalAboveWeekly != 0 {
		return s.TotalAboveWeekly
	}
	return s.TotalAbove
}

// Below returns the number of assets below their EMA.
func (s Summary) Below() int {
	if s.TotalBelowWeekly != 0 {
		return s.TotalBelowWeekly
	}
	return s.TotalBelow
}

// StrategicSummary is the server-side bucketing shipped with a full payload.
type StrategicSummary struct {
	LongTerm []Asset `json:"coins_to_evaluate_long_term"`
	TradeNow []Asset `json:"coins_to_trade_now_short_term"`
	Avoid    []Asset `json:"coins_to_avoid"`
}

// ResultPayload is the full result set returned by /api/results/latest and /api/demo.
type ResultPayload struct {
	Summary          Summary          `json:"summary"`
	StrategicSummary StrategicSummary `json:"strategic_summary"`
	Results          []CoinResult     `json:"results,omitempty"`
}

// DatabaseStats is returned by /api/database-stats.
type DatabaseStats struct {
	TotalCoins   int      `json:"total_coins"`
	TotalRecords int      `json:"total_records"`
	Timeframes   []string `json:"timeframes,omitempty"`
	LastUpdated  string   `json:"last_updated,omitempty"`
}

// EMAAnalysis is returned by /api/ema-analysis/all for one timeframe.
type EMAAnalysis struct {
	Timeframe string  `json:"timeframe"`
	Coins     []Asset `json:"coins"`
}

// CoinInfo is the identity block of a coin details response.
type CoinInfo struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	CurrentPrice  float64 `json:"current_price"`
	MarketCap     float64 `json:"market_cap"`
	MarketCapRank int     `json:"market_cap_rank"`
	DataSource    string  `json:"data_source"`
	LastUpdated   string  `json:"last_updated"`
}

// EMADetail is one timeframe row of a coin details response.
type EMADetail struct {
	Timeframe    string  `json:"timeframe"`
	EMA50        float64 `json:"ema50"`
	PctFromEMA50 float64 `json:"pct_from_ema50"`
	AboveEMA50   bool    `json:"above_ema50"`
}

// PriceRange holds historical extremes of a coin.
type PriceRange struct {
	AllTimeHigh     *float64 `json:"all_time_high"`
	AllTimeLow      *float64 `json:"all_time_low"`
	FiveYearHigh    *float64 `json:"five_year_high"`
	FiveYearLow     *float64 `json:"five_year_low"`
	OneYearHigh     *float64 `json:"one_year_high"`
	OneYearLow      *float64 `json:"one_year_low"`
	PricePosition5y *float64 `json:"price_position_5y"`
}

// TradingConfidence is the service's qualitative confidence rating.
type TradingConfidence struct {
	Level   string   `json:"level"`
	Color   string   `json:"color"`
	Factors []string `json:"factors"`
}

// CoinDetails is returned by /api/coins/{symbol}/details.
type CoinDetails struct {
	CoinInfo          CoinInfo                 `json:"coin_info"`
	DataCoverage      []map[string]interface{} `json:"data_coverage"`
	OverallQuality    map[string]interface{}   `json:"overall_quality,omitempty"`
	EMAAnalysis       []EMADetail              `json:"ema_analysis"`
	PriceRange        PriceRange               `json:"price_range"`
	TradingConfidence TradingConfidence        `json:"trading_confidence"`
}
