package strategy

import (
	"math"

	"EMAScan/internal/domain/models"
)

// Bucket thresholds, in percent distance from EMA50.
const (
	LongTermFloor = -10.0
	TradeNowBand  = 5.0
	AvoidCeiling  = -10.0
)

// Bucketer assigns classified assets to strategic buckets. The rules are
// independent, so an asset may land in none, one or several buckets.
type Bucketer struct{}

// NewBucketer creates a bucketer.
func NewBucketer() *Bucketer { return &Bucketer{} }

// Bucket groups assets, preserving input order inside each bucket.
// Stablecoins are excluded even if the caller forgot to filter them.
func (b *Bucketer) Bucket(assets []models.ClassifiedAsset) models.Buckets {
	out := models.Buckets{
		LongTerm: []models.ClassifiedAsset{},
		TradeNow: []models.ClassifiedAsset{},
		Avoid:    []models.ClassifiedAsset{},
	}
	for _, a := range assets {
		if IsStablecoin(a.Symbol) {
			continue
		}
		if IsLongTerm(a) {
			out.LongTerm = append(out.LongTerm, a)
		}
		if IsTradeNow(a) {
			out.TradeNow = append(out.TradeNow, a)
		}
		if IsAvoid(a) {
			out.Avoid = append(out.Avoid, a)
		}
	}
	return out
}

// IsLongTerm: above EMA, or no more than 10% below it. The long-term and avoid
// rules only judge daily or weekly headlines.
func IsLongTerm(a models.ClassifiedAsset) bool {
	if a.IntradayHeadline {
		return false
	}
	pct := a.PctFromEMA50
	return pct >= 0 || pct >= LongTermFloor
}

// IsTradeNow requires a 4h distance within the trade band.
func IsTradeNow(a models.ClassifiedAsset) bool {
	return a.FourHourPct != nil && math.Abs(*a.FourHourPct) <= TradeNowBand
}

func IsAvoid(a models.ClassifiedAsset) bool {
	return !a.IntradayHeadline && a.PctFromEMA50 < AvoidCeiling
}
