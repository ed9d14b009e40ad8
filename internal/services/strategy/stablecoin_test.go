package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"EMAScan/internal/domain/models"
)

func symbols(assets []models.Asset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.Symbol)
	}
	return out
}

func TestFilterStablecoins(t *testing.T) {
	in := []models.Asset{{Symbol: "BTC"}, {Symbol: "USDT"}, {Symbol: "ETH"}, {Symbol: "usdc"}, {Symbol: "DAI"}}
	got := FilterStablecoins(in)
	assert.Equal(t, []string{"BTC", "ETH", "usdc"}, symbols(got))
	assert.Equal(t, got, FilterStablecoins(got))
}

func TestFilterStablecoinsEmpty(t *testing.T) {
	got := FilterStablecoins(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterResultsUsesSnapshotSymbol(t *testing.T) {
	in := []models.CoinResult{
		{Weekly: &models.Asset{Symbol: "USDC"}},
		{Symbol: "SOL"},
	}
	got := FilterResults(in)
	assert.Len(t, got, 1)
	assert.Equal(t, "SOL", got[0].Symbol)
}
