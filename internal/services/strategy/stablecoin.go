package strategy

import "EMAScan/internal/domain/models"

// stablecoins is the closed denylist of stable-value tickers. Matching is case-sensitive.
var stablecoins = map[string]struct{}{
	"USDT": {}, "USDC": {}, "BUSD": {}, "DAI": {}, "TUSD": {},
	"USDP": {}, "USDD": {}, "GUSD": {}, "FRAX": {}, "LUSD": {},
	"USDE": {}, "FDUSD": {}, "PYUSD": {}, "USDS": {}, "USDJ": {},
	"EURS": {}, "EURT": {}, "SUSD": {}, "PAXG": {},
}

// IsStablecoin reports whether symbol is on the denylist.
func IsStablecoin(symbol string) bool {
	_, ok := stablecoins[symbol]
	return ok
}

// Filter drops items whose key is a stablecoin. Order is preserved and the result is never nil.
func Filter[T any](items []T, symbol func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if IsStablecoin(symbol(it)) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// FilterStablecoins removes stablecoins from a list of assets.
func FilterStablecoins(assets []models.Asset) []models.Asset {
	return Filter(assets, func(a models.Asset) string { return a.Symbol })
}

// FilterResults removes stablecoins from raw coin results.
func FilterResults(results []models.CoinResult) []models.CoinResult {
	return Filter(results, models.CoinResult.SymbolKey)
}
