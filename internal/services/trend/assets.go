package trend

import (
	"sort"

	"EMAScan/internal/domain/models"
)

// AssetClassifier annotates raw coin results with trend and alignment data.
type AssetClassifier struct{}

// NewAssetClassifier creates a classifier.
func NewAssetClassifier() *AssetClassifier { return &AssetClassifier{} }

// Classify converts results into classified assets, preserving input order.
// Results without a usable headline distance are dropped.
func (c *AssetClassifier) Classify(results []models.CoinResult) []models.ClassifiedAsset {
	out := make([]models.ClassifiedAsset, 0, len(results))
	for _, r := range results {
		if ca, ok := ClassifyResult(r); ok {
			out = append(out, ca)
		}
	}
	return out
}

// ClassifyResult classifies a single coin result.
func ClassifyResult(r models.CoinResult) (models.ClassifiedAsset, bool) {
	samples := Samples(r)

	var asset models.Asset
	p, headline := r.Headline()
	if p != nil {
		asset = *p
	} else {
		s, ok := longestSample(samples)
		if !ok {
			return models.ClassifiedAsset{}, false
		}
		headline = s.Timeframe
		asset = models.Asset{
			PctFromEMA50: s.Pct,
			AboveEMA50:   s.Above,
			Timeframe:    string(s.Timeframe),
		}
	}
	if asset.Symbol == "" {
		asset.Symbol = r.Symbol
	}
	if asset.Name == "" {
		asset.Name = r.Name
	}
	if asset.Rank == 0 {
		asset.Rank = r.Rank
	}
	if asset.Symbol == "" || !IsValidDistance(asset.PctFromEMA50) {
		return models.ClassifiedAsset{}, false
	}

	cls := Classify(asset.PctFromEMA50)
	ca := models.ClassifiedAsset{
		Asset:     asset,
		Trend:     cls.Category,
		Icon:      cls.Icon,
		Samples:   samples,
		Alignment: Score(samples),

		IntradayHeadline: models.IsIntraday(headline),
	}
	if s, ok := samples[models.TF4h]; ok {
		pct := s.Pct
		ca.FourHourPct = &pct
	}
	return ca, true
}

// Samples collects every available timeframe sample of a result.
// timeframe_data entries win over the weekly/daily/4h snapshots; missing or
// non-finite distances are excluded.
func Samples(r models.CoinResult) map[models.Timeframe]models.TimeframeSample {
	samples := make(map[models.Timeframe]models.TimeframeSample, len(r.TimeframeData)+3)
	for key, raw := range r.TimeframeData {
		tf, ok := models.ParseTimeframe(key)
		if !ok || raw.Pct == nil || !IsValidDistance(*raw.Pct) {
			continue
		}
		samples[tf] = Sample(tf, *raw.Pct, raw.Above)
	}

	snapshots := []struct {
		tf    models.Timeframe
		asset *models.Asset
	}{
		{models.TF1w, r.Weekly},
		{models.TF1d, r.Daily},
		{models.TF4h, r.FourHour},
	}
	for _, snap := range snapshots {
		if snap.asset == nil || !IsValidDistance(snap.asset.PctFromEMA50) {
			continue
		}
		if _, exists := samples[snap.tf]; exists {
			continue
		}
		samples[snap.tf] = Sample(snap.tf, snap.asset.PctFromEMA50, snap.asset.AboveEMA50)
	}
	return samples
}

func longestSample(samples map[models.Timeframe]models.TimeframeSample) (models.TimeframeSample, bool) {
	tfs := models.Timeframes()
	for i := len(tfs) - 1; i >= 0; i-- {
		if s, ok := samples[tfs[i]]; ok {
			return s, true
		}
	}
	return models.TimeframeSample{}, false
}

// Rank orders assets by alignment score descending, then market-cap rank, then symbol.
// Assets without a rank sort after ranked ones.
func Rank(assets []models.ClassifiedAsset) {
	sort.SliceStable(assets, func(i, j int) bool {
		a, b := assets[i], assets[j]
		if a.Alignment.AlignmentScore != b.Alignment.AlignmentScore {
			return a.Alignment.AlignmentScore > b.Alignment.AlignmentScore
		}
		if a.Rank != b.Rank {
			if a.Rank == 0 {
				return false
			}
			if b.Rank == 0 {
				return true
			}
			return a.Rank < b.Rank
		}
		return a.Symbol < b.Symbol
	})
}
