package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasim/internal/sim"
)

func sampleHistory() []sim.HistoryRow {
	return []sim.HistoryRow{
		{Day: 0, Prices: map[string]float64{"AAA": 100, "BBB": 50}, Cash: 100_000, Equity: 100_000},
		{Day: 1, Prices: map[string]float64{"AAA": 101, "BBB": 49}, Cash: 98_990, Equity: 100_000},
		{Day: 2, Prices: map[string]float64{"AAA": 103, "BBB": 48}, Cash: 98_990, Equity: 100_020},
	}
}

func TestGenerateHTML(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(Config{Dir: dir})

	res, err := g.Generate(context.Background(), "run-abc", sampleHistory(), sim.RunStats{ReturnPct: 0.02, Sharpe: 1.1})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run_run-abc.html"), res.HTMLPath)
	assert.Empty(t, res.PNGPath, "未开启快照时不产出 PNG")

	body, err := os.ReadFile(res.HTMLPath)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "Equity run-abc")
	assert.Contains(t, html, "AAA")
	assert.Contains(t, html, "BBB")
}

func TestGenerateEmptyHistory(t *testing.T) {
	g := NewGenerator(Config{Dir: t.TempDir()})
	_, err := g.Generate(context.Background(), "run-abc", nil, sim.RunStats{})
	assert.Error(t, err)
}

func TestGenerateCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	g := NewGenerator(Config{Dir: dir})
	res, err := g.Generate(context.Background(), "x", sampleHistory(), sim.RunStats{})
	require.NoError(t, err)
	assert.FileExists(t, res.HTMLPath)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, round(1.2345, 2))
	assert.Equal(t, 2.0, round(1.5, 0))
	assert.Equal(t, 1.2346, round(1.23456, 4))
}
