package usecase

import "EMAScan/internal/domain/models"

// resultsFromSummary rebuilds per-coin results from a strategic summary when the payload
// carries no per-coin list. Long-term and avoid entries default to the weekly snapshot,
// trade-now entries to the 4h one; an explicit timeframe label on the entry wins.
func resultsFromSummary(ss models.StrategicSummary) []models.CoinResult {
	var (
		order []string
		bySym = make(map[string]*models.CoinResult)
	)
	add := func(assets []models.Asset, fallback models.Timeframe) {
		for i := range assets {
			a := assets[i]
			if a.Symbol == "" {
				continue
			}
			r, ok := bySym[a.Symbol]
			if !ok {
				r = &models.CoinResult{Symbol: a.Symbol, Name: a.Name, Rank: a.Rank}
				bySym[a.Symbol] = r
				order = append(order, a.Symbol)
			}
			tf, ok := models.ParseTimeframe(a.Timeframe)
			if !ok {
				tf = fallback
			}
			setSnapshot(r, tf, a)
		}
	}
	add(ss.LongTerm, models.TF1w)
	add(ss.Avoid, models.TF1w)
	add(ss.TradeNow, models.TF4h)

	out := make([]models.CoinResult, 0, len(order))
	for _, sym := range order {
		out = append(out, *bySym[sym])
	}
	return out
}

// mergeAnalysis folds one timeframe's EMA snapshots into results, appending coins not seen yet.
func mergeAnalysis(results []models.CoinResult, tf models.Timeframe, coins []models.Asset) []models.CoinResult {
	index := make(map[string]int, len(results))
	for i, r := range results {
		index[r.SymbolKey()] = i
	}
	for _, a := range coins {
		if a.Symbol == "" {
			continue
		}
		i, ok := index[a.Symbol]
		if !ok {
			results = append(results, models.CoinResult{Symbol: a.Symbol, Name: a.Name, Rank: a.Rank})
			i = len(results) - 1
			index[a.Symbol] = i
		}
		setSnapshot(&results[i], tf, a)
	}
	return results
}

func setSnapshot(r *models.CoinResult, tf models.Timeframe, a models.Asset) {
	snap := a
	snap.Timeframe = string(tf)
	switch tf {
	case models.TF1w:
		if r.Weekly == nil {
			r.Weekly = &snap
		}
	case models.TF1d:
		if r.Daily == nil {
			r.Daily = &snap
		}
	case models.TF4h:
		if r.FourHour == nil {
			r.FourHour = &snap
		}
	}
	if r.TimeframeData == nil {
		r.TimeframeData = make(map[string]models.RawSample)
	}
	if _, exists := r.TimeframeData[string(tf)]; !exists {
		pct := a.PctFromEMA50
		r.TimeframeData[string(tf)] = models.RawSample{Pct: &pct, Above: a.AboveEMA50}
	}
	if r.Name == "" {
		r.Name = a.Name
	}
	if r.Rank == 0 {
		r.Rank = a.Rank
	}
}
