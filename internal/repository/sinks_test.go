package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"EMAScan/internal/domain/models"
	pkgkafka "EMAScan/pkg/kafka"
)

func testDashboard(runID string, at time.Time) *models.Dashboard {
	four := 3.0
	xyz := models.ClassifiedAsset{Asset: models.Asset{Symbol: "XYZ", Rank: 3, PctFromEMA50: 12}, Trend: models.TrendVeryBullish,
		Alignment: models.AlignmentResult{Bullish: 1, Total: 1, AlignmentScore: 100, PrimaryTrend: models.PrimaryBullish}}
	def := models.ClassifiedAsset{Asset: models.Asset{Symbol: "DEF", Rank: 1, PctFromEMA50: -30}, FourHourPct: &four, Trend: models.TrendBearish,
		Alignment: models.AlignmentResult{Bullish: 1, Bearish: 1, Total: 2, AlignmentScore: 50, PrimaryTrend: models.PrimaryNeutral}}
	return models.NewDashboard(runID, models.SourcePoll, at, models.Summary{TotalScanned: 2},
		[]models.ClassifiedAsset{xyz, def},
		models.Buckets{
			LongTerm: []models.ClassifiedAsset{xyz},
			TradeNow: []models.ClassifiedAsset{def},
			Avoid:    []models.ClassifiedAsset{def},
		})
}

type fakePublisher struct {
	topic string
	msgs  []pkgkafka.Message
	err   error
}

func (p *fakePublisher) PublishBatch(_ context.Context, topic string, messages []pkgkafka.Message) error {
	p.topic = topic
	p.msgs = append(p.msgs, messages...)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func TestKafkaSinkPublishesKeyedSnapshot(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewKafkaSink(pub, "")

	require.NoError(t, sink.Publish(context.Background(), testDashboard("run-7", time.Now())))
	assert.Equal(t, DefaultSnapshotTopic, pub.topic)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "run-7", string(pub.msgs[0].Key))

	snap, ok := pub.msgs[0].Value.(Snapshot)
	require.True(t, ok)
	assert.Equal(t, []string{"XYZ"}, snap.LongTerm)
	assert.Equal(t, []string{"DEF"}, snap.Avoid)
	require.Len(t, snap.Assets, 2)
	assert.Equal(t, 50.0, snap.Assets[1].AlignmentScore)

	pub.err = errors.New("leader not available")
	err := sink.Publish(context.Background(), testDashboard("run-8", time.Now()))
	assert.ErrorContains(t, err, "run-8")
}

func TestDecodeSnapshot(t *testing.T) {
	s, err := DecodeSnapshot(kafka.Message{Value: []byte(`{"run_id":"r1","source":"stream","long_term":["BTC"]}`)})
	require.NoError(t, err)
	assert.Equal(t, "r1", s.RunID)
	assert.Equal(t, []string{"BTC"}, s.LongTerm)

	_, err = DecodeSnapshot(kafka.Message{Value: []byte("{")})
	assert.Error(t, err)
}

// The history sink only uses portable SQL, so it is exercised against SQLite.
func openHistoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(`CREATE TABLE alignment_history (
        generated_at DATETIME, run_id TEXT, source TEXT, symbol TEXT, rank INTEGER,
        pct_from_ema REAL, trend TEXT, alignment_score REAL, primary_trend TEXT,
        long_term BOOLEAN, trade_now BOOLEAN, avoid BOOLEAN)`)
	require.NoError(t, err)
	return db
}

func TestClickHouseSinkHistory(t *testing.T) {
	ctx := context.Background()
	sink, err := NewClickHouseSink(openHistoryDB(t), "")
	require.NoError(t, err)

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Publish(ctx, testDashboard("run-1", t0)))
	require.NoError(t, sink.Publish(ctx, testDashboard("run-2", t0.Add(time.Hour))))

	points, err := sink.History(ctx, "DEF", 10)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "run-2", points[0].RunID)
	assert.False(t, points[0].LongTerm)
	assert.True(t, points[0].TradeNow)
	assert.True(t, points[0].Avoid)
	assert.Equal(t, -30.0, points[0].PctFromEMA)

	points, err = sink.History(ctx, "XYZ", 1)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.True(t, points[0].LongTerm)
	assert.Equal(t, models.PrimaryBullish, points[0].PrimaryTrend)
}

func TestClickHouseSinkRejectsBadTable(t *testing.T) {
	_, err := NewClickHouseSink(nil, "history; DROP TABLE x")
	assert.Error(t, err)
}

func TestHistorySchemaNamesTable(t *testing.T) {
	stmts := HistorySchema("emascan.alignment_history")
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS emascan.alignment_history")
}
