package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EMAScan/internal/domain/models"
	"EMAScan/internal/services/trend"
)

func names(assets []models.ClassifiedAsset) []string {
	out := []string{}
	for _, a := range assets {
		out = append(out, a.Symbol)
	}
	return out
}

func f(v float64) *float64 { return &v }

func TestBucketRules(t *testing.T) {
	assets := []models.ClassifiedAsset{
		{Asset: models.Asset{Symbol: "UP", PctFromEMA50: 12}},
		{Asset: models.Asset{Symbol: "DIP", PctFromEMA50: -10}, FourHourPct: f(-5)},
		{Asset: models.Asset{Symbol: "DOWN", PctFromEMA50: -10.5}, FourHourPct: f(5.01)},
	}
	b := NewBucketer().Bucket(assets)
	assert.Equal(t, []string{"UP", "DIP"}, names(b.LongTerm))
	assert.Equal(t, []string{"DIP"}, names(b.TradeNow))
	assert.Equal(t, []string{"DOWN"}, names(b.Avoid))
}

func TestBucketIntradayHeadlineOnlyTradesNow(t *testing.T) {
	b := NewBucketer().Bucket([]models.ClassifiedAsset{
		{Asset: models.Asset{Symbol: "DEF", PctFromEMA50: 3}, FourHourPct: f(3), IntradayHeadline: true},
		{Asset: models.Asset{Symbol: "GHI", PctFromEMA50: -20}, IntradayHeadline: true},
	})
	assert.Empty(t, b.LongTerm)
	assert.Equal(t, []string{"DEF"}, names(b.TradeNow))
	assert.Empty(t, b.Avoid)
}

func TestBucketEmptyInput(t *testing.T) {
	b := NewBucketer().Bucket(nil)
	assert.NotNil(t, b.LongTerm)
	assert.NotNil(t, b.TradeNow)
	assert.NotNil(t, b.Avoid)
}

func TestBucketEndToEnd(t *testing.T) {
	raw := []models.CoinResult{
		{Symbol: "XYZ", Weekly: &models.Asset{Symbol: "XYZ", PctFromEMA50: 12}},
		{Symbol: "ABC", Weekly: &models.Asset{Symbol: "ABC", PctFromEMA50: -15}},
		{Symbol: "DEF", Weekly: &models.Asset{Symbol: "DEF", PctFromEMA50: -40}, FourHour: &models.Asset{Symbol: "DEF", PctFromEMA50: 3}},
		{Symbol: "USDT", Weekly: &models.Asset{Symbol: "USDT", PctFromEMA50: 0}, FourHour: &models.Asset{Symbol: "USDT", PctFromEMA50: 0}},
	}

	classified := trend.NewAssetClassifier().Classify(FilterResults(raw))
	require.Len(t, classified, 3)

	b := NewBucketer().Bucket(classified)
	assert.Equal(t, []string{"XYZ"}, names(b.LongTerm))
	assert.Equal(t, []string{"DEF"}, names(b.TradeNow))
	assert.Equal(t, []string{"ABC", "DEF"}, names(b.Avoid))

	for _, bucket := range [][]models.ClassifiedAsset{b.LongTerm, b.TradeNow, b.Avoid} {
		assert.NotContains(t, names(bucket), "USDT")
	}
}

func TestBucketSkipsUnfilteredStablecoins(t *testing.T) {
	b := NewBucketer().Bucket([]models.ClassifiedAsset{
		{Asset: models.Asset{Symbol: "USDC"}, FourHourPct: f(0)},
	})
	assert.Empty(t, b.LongTerm)
	assert.Empty(t, b.TradeNow)
}
