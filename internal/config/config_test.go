package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsRunnable(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.Sim.Days)
	assert.Equal(t, []string{"WASI"}, cfg.Sim.Symbols)
	assert.Equal(t, 100_000.0, cfg.Sim.StartCash)
	assert.Equal(t, "random_walk", cfg.Feed.Source)
	assert.Equal(t, "rule", cfg.Agents.FundamentalMode)
	assert.Equal(t, "fundamental", cfg.Agents.Primary)
	assert.Equal(t, []string{"fundamental", "macro", "sentiment"}, cfg.Agents.Priority)
	assert.Equal(t, ":9992", cfg.App.HTTPAddr)

	require.NoError(t, validate(cfg))
}

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
app:
  log_level: debug
  http_addr: ":8080"
sim:
  days: 30
  symbols: [aaa, bbb]
  seed: 7
  fee_bps: 2
feed:
  source: binance
  binance:
    interval: 4h
agents:
  macro_mode: rule
  primary: macro
llm:
  api_key: sk-test
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.App.LogLevel)
		assert.Equal(t, ":8080", cfg.App.HTTPAddr)
		assert.Equal(t, 30, cfg.Sim.Days)
		assert.Equal(t, []string{"AAA", "BBB"}, cfg.Sim.NormalizedSymbols())
		assert.Equal(t, int64(7), cfg.Sim.Seed)
		assert.Equal(t, 2.0, cfg.Sim.FeeBps)
		assert.Equal(t, "binance", cfg.Feed.Source)
		assert.Equal(t, "4h", cfg.Feed.Binance.Interval)
		assert.Equal(t, "macro", cfg.Agents.Primary)
		// 未给出的键回落到默认值
		assert.Equal(t, 100_000.0, cfg.Sim.StartCash)
		assert.Equal(t, 365, cfg.Feed.Binance.LookbackDays)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad feed source", func(t *testing.T) {
		path := writeConfig(t, "feed:\n  source: csv\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "feed.source")
	})

	t.Run("bad agent mode", func(t *testing.T) {
		path := writeConfig(t, "agents:\n  sentiment_mode: oracle\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sentiment_mode")
	})

	t.Run("llm mode requires api key", func(t *testing.T) {
		path := writeConfig(t, "agents:\n  fundamental_mode: llm\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm.api_key")
	})
}

func TestNormalizedSymbols(t *testing.T) {
	s := SimConfig{Symbols: []string{" aaa", "BBB", "aaa", "", "bbb "}}
	assert.Equal(t, []string{"AAA", "BBB"}, s.NormalizedSymbols())
}

func TestSimValidate(t *testing.T) {
	s := SimConfig{Symbols: []string{"  "}, StartPrice: 100, MaxGrossExposure: 1000}
	assert.Error(t, s.validate(), "纯空白符号视为空")

	s = SimConfig{Symbols: []string{"AAA"}, StartPrice: 100, MaxGrossExposure: 50}
	assert.Error(t, s.validate(), "总敞口买不起一股")

	s = SimConfig{Symbols: []string{"AAA"}, StartPrice: 100, MaxGrossExposure: 1000}
	assert.NoError(t, s.validate())
}
