package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileNormalize(t *testing.T) {
	var p AgentProfiles
	p.normalize()
	assert.Equal(t, DefaultProfiles(), p, "零值全部回落到缺省调参")

	p = AgentProfiles{
		Fundamental: FundamentalProfile{SMAWindow: 20, BaseThreshold: 0.01, QtyCap: 50},
		Macro:       MacroProfile{MomentumWindow: -1, Threshold: 0.005, QtyCap: 5},
		Sentiment:   SentimentProfile{BreakoutWindow: 1, Epsilon: 0.01, Qty: 3},
	}
	p.normalize()
	assert.Equal(t, 20, p.Fundamental.SMAWindow)
	assert.Equal(t, 3, p.Macro.MomentumWindow, "非法窗口回落缺省")
	assert.Equal(t, 0.005, p.Macro.Threshold)
	assert.Equal(t, 10, p.Sentiment.BreakoutWindow, "突破窗口至少为 2")
}

func TestProfileLoader(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		l, err := NewProfileLoader(filepath.Join(t.TempDir(), "profiles.yaml"))
		require.NoError(t, err)
		defer l.Close()

		snap := l.Snapshot()
		assert.EqualValues(t, 1, snap.Version)
		assert.Equal(t, DefaultProfiles(), snap.Agents)
	})

	t.Run("existing file parsed at start", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profiles.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
agents:
  fundamental:
    sma_window: 7
    base_threshold: 0.004
    qty_cap: 30
  macro:
    momentum_window: 5
  sentiment:
    epsilon: 0.001
`), 0o644))

		l, err := NewProfileLoader(path)
		require.NoError(t, err)
		defer l.Close()

		snap := l.Snapshot()
		assert.Equal(t, 7, snap.Agents.Fundamental.SMAWindow)
		assert.Equal(t, 0.004, snap.Agents.Fundamental.BaseThreshold)
		assert.Equal(t, int64(30), snap.Agents.Fundamental.QtyCap)
		assert.Equal(t, 5, snap.Agents.Macro.MomentumWindow)
		// 省略的键按缺省补齐
		assert.Equal(t, 0.003, snap.Agents.Macro.Threshold)
		assert.Equal(t, int64(8), snap.Agents.Sentiment.Qty)
	})

	t.Run("unknown keys rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profiles.yaml")
		require.NoError(t, os.WriteFile(path, []byte("agents:\n  momentum:\n    window: 3\n"), 0o644))
		_, err := NewProfileLoader(path)
		assert.Error(t, err)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewProfileLoader(" ")
		assert.Error(t, err)
	})
}
