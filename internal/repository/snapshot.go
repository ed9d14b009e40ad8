package repository

import (
	"time"

	"EMAScan/internal/domain/models"
)

// Snapshot is the wire form of a dashboard published to downstream consumers.
type Snapshot struct {
	RunID       string          `json:"run_id"`
	Source      string          `json:"source"`
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     models.Summary  `json:"summary"`
	Assets      []SnapshotAsset `json:"assets"`
	LongTerm    []string        `json:"long_term"`
	TradeNow    []string        `json:"trade_now"`
	Avoid       []string        `json:"avoid"`
}

// SnapshotAsset is one asset row of a snapshot.
type SnapshotAsset struct {
	Symbol         string   `json:"symbol"`
	Rank           int      `json:"rank"`
	PctFromEMA     float64  `json:"pct_from_ema"`
	FourHourPct    *float64 `json:"four_hour_pct,omitempty"`
	Trend          string   `json:"trend"`
	AlignmentScore float64  `json:"alignment_score"`
	PrimaryTrend   string   `json:"primary_trend"`
}

// NewSnapshot flattens a dashboard.
func NewSnapshot(d *models.Dashboard) Snapshot {
	s := Snapshot{
		RunID:       d.RunID,
		Source:      string(d.Source),
		GeneratedAt: d.GeneratedAt.UTC(),
		Summary:     d.Summary,
		Assets:      make([]SnapshotAsset, 0, len(d.Assets)),
		LongTerm:    bucketSymbols(d.Buckets.LongTerm),
		TradeNow:    bucketSymbols(d.Buckets.TradeNow),
		Avoid:       bucketSymbols(d.Buckets.Avoid),
	}
	for _, a := range d.Assets {
		s.Assets = append(s.Assets, SnapshotAsset{
			Symbol:         a.Symbol,
			Rank:           a.Rank,
			PctFromEMA:     a.PctFromEMA50,
			FourHourPct:    a.FourHourPct,
			Trend:          string(a.Trend),
			AlignmentScore: a.Alignment.AlignmentScore,
			PrimaryTrend:   a.Alignment.PrimaryTrend,
		})
	}
	return s
}

func bucketSymbols(assets []models.ClassifiedAsset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.Symbol)
	}
	return out
}

func (s Snapshot) memberships() map[string][3]bool {
	m := make(map[string][3]bool, len(s.Assets))
	for i, bucket := range [][]string{s.LongTerm, s.TradeNow, s.Avoid} {
		for _, sym := range bucket {
			flags := m[sym]
			flags[i] = true
			m[sym] = flags
		}
	}
	return m
}
