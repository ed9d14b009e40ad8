package models

// Timeframe is the sampling interval a distance-from-EMA value was computed on.
type Timeframe string

const (
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF12h Timeframe = "12h"
	TF1d  Timeframe = "1d"
	TF1w  Timeframe = "1w"
)

// timeframeOrder is the fixed display sequence, shortest first.
var timeframeOrder = []Timeframe{TF15m, TF30m, TF1h, TF4h, TF12h, TF1d, TF1w}

// Timeframes returns the supported timeframes in display order.
func Timeframes() []Timeframe {
	out := make([]Timeframe, len(timeframeOrder))
	copy(out, timeframeOrder)
	return out
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF15m, TF30m, TF1h, TF4h, TF12h, TF1d, TF1w:
		return true
	default:
		return false
	}
}

// IsIntraday reports whether tf is shorter than a day.
func IsIntraday(tf Timeframe) bool {
	switch tf {
	case TF15m, TF30m, TF1h, TF4h, TF12h:
		return true
	}
	return false
}

// DefaultTimeframe returns the default (primary) timeframe.
func DefaultTimeframe() Timeframe { return TF1w }

// ParseTimeframe resolves a raw label to a supported timeframe.
// The long labels used by the scan results ("weekly", "daily") are accepted too.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch s {
	case "weekly", "1W":
		return TF1w, true
	case "daily", "1D":
		return TF1d, true
	case "4H":
		return TF4h, true
	}
	tf := Timeframe(s)
	return tf, IsValidTimeframe(tf)
}

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if tf, ok := ParseTimeframe(s); ok {
		return tf
	}
	return DefaultTimeframe()
}
