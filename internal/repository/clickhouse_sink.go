package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"EMAScan/internal/domain/models"
	drepo "EMAScan/internal/domain/repository"
)

// DefaultHistoryTable stores one row per asset per pipeline run.
const DefaultHistoryTable = "alignment_history"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// HistorySchema returns the ClickHouse DDL for the history table.
func HistorySchema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            generated_at    DateTime64(3, 'UTC'),
            run_id          String,
            source          LowCardinality(String),
            symbol          LowCardinality(String),
            rank            UInt32,
            pct_from_ema    Float64,
            trend           LowCardinality(String),
            alignment_score Float64,
            primary_trend   LowCardinality(String),
            long_term       Bool,
            trade_now       Bool,
            avoid           Bool
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(generated_at)
        ORDER BY (symbol, generated_at)
    `, table)}
}

// HistoryPoint is one stored asset row.
type HistoryPoint struct {
	GeneratedAt    time.Time `json:"generated_at"`
	RunID          string    `json:"run_id"`
	Source         string    `json:"source"`
	Symbol         string    `json:"symbol"`
	Rank           int       `json:"rank"`
	PctFromEMA     float64   `json:"pct_from_ema"`
	Trend          string    `json:"trend"`
	AlignmentScore float64   `json:"alignment_score"`
	PrimaryTrend   string    `json:"primary_trend"`
	LongTerm       bool      `json:"long_term"`
	TradeNow       bool      `json:"trade_now"`
	Avoid          bool      `json:"avoid"`
}

// ClickHouseSink appends every dashboard to the alignment history table.
type ClickHouseSink struct {
	db    *sql.DB
	table string
}

var _ drepo.SnapshotSink = (*ClickHouseSink)(nil)

// NewClickHouseSink creates the sink over an open pool.
func NewClickHouseSink(db *sql.DB, table string) (*ClickHouseSink, error) {
	if table == "" {
		table = DefaultHistoryTable
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid history table name %q", table)
	}
	return &ClickHouseSink{db: db, table: table}, nil
}

func (s *ClickHouseSink) Publish(ctx context.Context, d *models.Dashboard) error {
	snap := NewSnapshot(d)
	if len(snap.Assets) == 0 {
		return nil
	}
	member := snap.memberships()

	// Chunk multi-row VALUES to bound statement size.
	const chunkSize = 1000
	for start := 0; start < len(snap.Assets); start += chunkSize {
		end := min(start+chunkSize, len(snap.Assets))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*12)
		for _, a := range snap.Assets[start:end] {
			flags := member[a.Symbol]
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				snap.GeneratedAt,
				snap.RunID,
				snap.Source,
				a.Symbol,
				a.Rank,
				a.PctFromEMA,
				a.Trend,
				a.AlignmentScore,
				a.PrimaryTrend,
				flags[0],
				flags[1],
				flags[2],
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s (generated_at, run_id, source, symbol, rank, pct_from_ema, trend,
            alignment_score, primary_trend, long_term, trade_now, avoid) VALUES %s`, s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert alignment history: %w", err)
		}
	}
	return nil
}

// History returns the newest rows for symbol, newest first.
func (s *ClickHouseSink) History(ctx context.Context, symbol string, limit int) ([]HistoryPoint, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf(`
        SELECT generated_at, run_id, source, symbol, rank, pct_from_ema, trend,
               alignment_score, primary_trend, long_term, trade_now, avoid
        FROM %s
        WHERE symbol = ?
        ORDER BY generated_at DESC
        LIMIT ?
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query alignment history: %w", err)
	}
	defer rows.Close()

	out := make([]HistoryPoint, 0, limit)
	for rows.Next() {
		var p HistoryPoint
		if err := rows.Scan(&p.GeneratedAt, &p.RunID, &p.Source, &p.Symbol, &p.Rank, &p.PctFromEMA, &p.Trend,
			&p.AlignmentScore, &p.PrimaryTrend, &p.LongTerm, &p.TradeNow, &p.Avoid); err != nil {
			return nil, fmt.Errorf("scan alignment history: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close is a no-op; the pool is owned by the caller.
func (s *ClickHouseSink) Close() error { return nil }
