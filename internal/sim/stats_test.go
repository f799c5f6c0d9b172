package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEquityMetricsBasics(t *testing.T) {
	ret, cagr, _, maxDD := EquityMetrics([]float64{100, 110, 99})

	assert.InDelta(t, -0.01, ret, 1e-9)
	assert.InDelta(t, 99.0/110.0-1.0, maxDD, 1e-9, "从峰值 110 回撤到 99")
	assert.Less(t, cagr, 0.0)
}

func TestEquityMetricsMonotonicGrowth(t *testing.T) {
	ret, cagr, sharpe, maxDD := EquityMetrics([]float64{100, 101, 102, 103})

	assert.InDelta(t, 0.03, ret, 1e-9)
	assert.Positive(t, cagr)
	assert.Positive(t, sharpe)
	assert.Zero(t, maxDD, "单调上升无回撤")
}

func TestEquityMetricsDegenerateInputs(t *testing.T) {
	for _, eq := range [][]float64{nil, {100}, {0, 100}} {
		ret, cagr, sharpe, maxDD := EquityMetrics(eq)
		assert.Zero(t, ret)
		assert.Zero(t, cagr)
		assert.Zero(t, sharpe)
		assert.Zero(t, maxDD)
	}
}

func TestEquityMetricsFlatSeriesHasNoSharpe(t *testing.T) {
	_, _, sharpe, _ := EquityMetrics([]float64{100, 100, 100, 100})
	assert.Zero(t, sharpe, "零方差不产生夏普")
}

func TestBuildStats(t *testing.T) {
	history := []HistoryRow{
		{Day: 0, Equity: 100_000},
		{Day: 1, Equity: 101_000},
		{Day: 2, Equity: 100_500},
	}
	stats := buildStats(100_000, history, 7, 12.5)

	assert.InDelta(t, 100_500.0, stats.FinalEquity, 1e-9)
	assert.InDelta(t, 500.0, stats.Profit, 1e-9)
	assert.InDelta(t, 0.5, stats.ReturnPct, 1e-6)
	assert.Equal(t, 7, stats.Trades)
	assert.InDelta(t, 12.5, stats.Fees, 1e-9)
	assert.Equal(t, 3, stats.Days)
	assert.False(t, math.IsNaN(stats.Sharpe))
	assert.Negative(t, stats.MaxDrawdownPct)
}

func TestBuildStatsEmptyHistory(t *testing.T) {
	stats := buildStats(100_000, nil, 0, 0)
	assert.InDelta(t, 100_000.0, stats.FinalEquity, 1e-9)
	assert.Zero(t, stats.Profit)
	assert.Zero(t, stats.Days)
}
