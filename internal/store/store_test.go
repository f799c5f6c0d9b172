package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wasim/internal/sim"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "wasim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRun(id string) sim.Run {
	now := time.Now()
	return sim.Run{
		ID:     id,
		Status: sim.RunStatusPending,
		Config: sim.RunConfig{
			Days:       5,
			Symbols:    []string{"AAA", "BBB"},
			Seed:       42,
			StartPrice: 100,
			StartCash:  100_000,
			FeedSource: "random_walk",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStoreRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRun(ctx, testRun("run-1")))

	got, ok, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sim.RunStatusPending, got.Status)
	assert.Equal(t, 5, got.Config.Days)
	assert.Equal(t, []string{"AAA", "BBB"}, got.Config.Symbols)

	require.NoError(t, s.UpdateRunStatus(ctx, "run-1", sim.RunStatusRunning, "day 1/5"))
	got, _, err = s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, sim.RunStatusRunning, got.Status)
	assert.Equal(t, "day 1/5", got.Message)

	done := got
	done.Status = sim.RunStatusDone
	done.Message = ""
	done.Stats = sim.RunStats{FinalEquity: 101_234.5, Profit: 1_234.5, Trades: 7, Days: 5, FinishedAt: time.Now()}
	done.CompletedAt = time.Now()
	require.NoError(t, s.FinishRun(ctx, done))

	got, _, err = s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, sim.RunStatusDone, got.Status)
	assert.Equal(t, 101_234.5, got.Stats.FinalEquity)
	assert.Equal(t, 7, got.Stats.Trades)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestStoreRunEdgeCases(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("missing run", func(t *testing.T) {
		_, ok, err := s.GetRun(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("update missing run", func(t *testing.T) {
		err := s.UpdateRunStatus(ctx, "ghost", sim.RunStatusRunning, "")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("empty run id", func(t *testing.T) {
		assert.Error(t, s.InsertRun(ctx, sim.Run{}))
	})

	t.Run("duplicate run id", func(t *testing.T) {
		require.NoError(t, s.InsertRun(ctx, testRun("dup")))
		assert.Error(t, s.InsertRun(ctx, testRun("dup")))
	})

	t.Run("nil store", func(t *testing.T) {
		var nilStore *Store
		assert.Error(t, nilStore.InsertRun(ctx, testRun("x")))
		_, _, err := nilStore.GetRun(ctx, "x")
		assert.Error(t, err)
	})
}

func TestStoreListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		run := testRun(id)
		require.NoError(t, s.InsertRun(ctx, run))
	}
	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// 同一毫秒内插入时按自增 id 倒序，最后插入的排最前
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "a", runs[2].ID)
}

func testOutcome() *sim.Outcome {
	return &sim.Outcome{
		History: []sim.HistoryRow{
			{Day: 0, Prices: map[string]float64{"AAA": 100}, Cash: 100_000, Positions: map[string]int64{"AAA": 0}, Equity: 100_000},
			{Day: 1, Prices: map[string]float64{"AAA": 101}, Cash: 98_989, Positions: map[string]int64{"AAA": 10}, Equity: 99_999},
		},
		Trades: []sim.TradeRow{
			{Day: 1, Symbol: "AAA", Price: 101.101, Qty: 10, BuyAgent: "exec", SellAgent: "lp"},
		},
		Transcript: []sim.TranscriptEntry{
			{Day: 0, Stage: "merge", Detail: json.RawMessage(`[]`)},
			{Day: 1, Stage: "orders", Detail: json.RawMessage(`[{"symbol":"AAA"}]`)},
		},
	}
}

func TestStoreSaveOutcomeRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertRun(ctx, testRun("run-1")))
	require.NoError(t, s.SaveOutcome(ctx, "run-1", testOutcome()))

	history, err := s.HistoryOf(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 0, history[0].Day)
	assert.Equal(t, 100_000.0, history[0].Equity)
	assert.Equal(t, map[string]int64{"AAA": 10}, history[1].Positions)
	assert.Equal(t, map[string]float64{"AAA": 101}, history[1].Prices)

	trades, err := s.TradesOf(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 101.101, trades[0].Price)
	assert.Equal(t, "exec", trades[0].BuyAgent)
	assert.Equal(t, "lp", trades[0].SellAgent)

	transcript, err := s.TranscriptOf(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, "merge", transcript[0].Stage)
	assert.JSONEq(t, `[{"symbol":"AAA"}]`, string(transcript[1].Detail))
}

func TestStoreSaveOutcomeIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertRun(ctx, testRun("run-1")))

	out := testOutcome()
	require.NoError(t, s.SaveOutcome(ctx, "run-1", out))
	// 失败重试场景：重复保存不产生重复行
	out.History[1].Equity = 100_500
	require.NoError(t, s.SaveOutcome(ctx, "run-1", out))

	history, err := s.HistoryOf(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 100_500.0, history[1].Equity)

	trades, err := s.TradesOf(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	require.NoError(t, s.SaveOutcome(ctx, "run-1", nil))
	history, err = s.HistoryOf(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, history, 2, "空产物不清除已有数据")
}

func TestStoreOutcomeIsolatedByRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertRun(ctx, testRun("run-1")))
	require.NoError(t, s.InsertRun(ctx, testRun("run-2")))
	require.NoError(t, s.SaveOutcome(ctx, "run-1", testOutcome()))

	history, err := s.HistoryOf(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, history)
}
