package models

import "time"

// SourceKind names where a result set came from.
type SourceKind string

const (
	SourcePoll     SourceKind = "poll"
	SourceStream   SourceKind = "stream"
	SourceDemo     SourceKind = "demo"
	SourceCache    SourceKind = "cache"
	SourceDatabase SourceKind = "database"
)

// Buckets is the strategic grouping of classified assets. Buckets may overlap.
type Buckets struct {
	LongTerm []ClassifiedAsset `json:"long_term"`
	TradeNow []ClassifiedAsset `json:"trade_now"`
	Avoid    []ClassifiedAsset `json:"avoid"`
}

// Dashboard is the derived state produced by one pipeline run.
type Dashboard struct {
	RunID       string            `json:"run_id"`
	Source      SourceKind        `json:"source"`
	GeneratedAt time.Time         `json:"generated_at"`
	Summary     Summary           `json:"summary"`
	Assets      []ClassifiedAsset `json:"assets"`
	Buckets     Buckets           `json:"buckets"`

	index map[string]int
}

// NewDashboard builds a dashboard and its symbol index.
func NewDashboard(runID string, src SourceKind, at time.Time, summary Summary, assets []ClassifiedAsset, buckets Buckets) *Dashboard {
	d := &Dashboard{
		RunID:       runID,
		Source:      src,
		GeneratedAt: at,
		Summary:     summary,
		Assets:      assets,
		Buckets:     buckets,
		index:       make(map[string]int, len(assets)),
	}
	for i, a := range assets {
		d.index[a.Symbol] = i
	}
	return d
}

// Lookup resolves a classified asset by symbol.
func (d *Dashboard) Lookup(symbol string) (ClassifiedAsset, bool) {
	if d == nil {
		return ClassifiedAsset{}, false
	}
	i, ok := d.index[symbol]
	if !ok {
		return ClassifiedAsset{}, false
	}
	return d.Assets[i], true
}
