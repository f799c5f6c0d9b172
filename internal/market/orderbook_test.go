package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitPtr(v float64) *float64 { return &v }

func TestBookPriceTimePriority(t *testing.T) {
	b := NewBook("AAA")
	b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 5, Limit: limitPtr(100), AgentID: "first"})
	b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 5, Limit: limitPtr(100), AgentID: "second"})
	b.Submit(&Order{Side: SideSell, Symbol: "AAA", Qty: 5, Limit: limitPtr(100), AgentID: "seller"})

	trades := b.Match()
	require.Len(t, trades, 1)
	assert.Equal(t, "first", trades[0].BuyAgent, "同价先到先得")
	assert.Equal(t, int64(5), trades[0].Qty)

	bids, asks := b.Depth()
	assert.Equal(t, 1, bids)
	assert.Equal(t, 0, asks)
}

func TestBookHigherBidWinsRegardlessOfArrival(t *testing.T) {
	b := NewBook("AAA")
	b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 3, Limit: limitPtr(99), AgentID: "low"})
	b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 3, Limit: limitPtr(101), AgentID: "high"})
	b.Submit(&Order{Side: SideSell, Symbol: "AAA", Qty: 3, Limit: limitPtr(99), AgentID: "seller"})

	trades := b.Match()
	require.Len(t, trades, 1)
	assert.Equal(t, "high", trades[0].BuyAgent)
	assert.InDelta(t, 100.0, trades[0].Price, 1e-9, "双限价取中点")
}

func TestBookMarketOrderPricing(t *testing.T) {
	t.Run("market buy takes resting ask price", func(t *testing.T) {
		b := NewBook("AAA")
		b.Submit(&Order{Side: SideSell, Symbol: "AAA", Qty: 4, Limit: limitPtr(99), AgentID: "maker"})
		b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 4, AgentID: "taker"})

		trades := b.Match()
		require.Len(t, trades, 1)
		assert.InDelta(t, 99.0, trades[0].Price, 1e-9)
	})

	t.Run("market sell takes resting bid price", func(t *testing.T) {
		b := NewBook("AAA")
		b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 4, Limit: limitPtr(101), AgentID: "maker"})
		b.Submit(&Order{Side: SideSell, Symbol: "AAA", Qty: 4, AgentID: "taker"})

		trades := b.Match()
		require.Len(t, trades, 1)
		assert.InDelta(t, 101.0, trades[0].Price, 1e-9)
	})

	t.Run("two market orders never match", func(t *testing.T) {
		b := NewBook("AAA")
		b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 4, AgentID: "a"})
		b.Submit(&Order{Side: SideSell, Symbol: "AAA", Qty: 4, AgentID: "b"})

		assert.Empty(t, b.Match())
		bids, asks := b.Depth()
		assert.Equal(t, 1, bids)
		assert.Equal(t, 1, asks)
	})
}

func TestBookPartialFill(t *testing.T) {
	b := NewBook("AAA")
	b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 10, Limit: limitPtr(100), AgentID: "big"})
	b.Submit(&Order{Side: SideSell, Symbol: "AAA", Qty: 4, Limit: limitPtr(100), AgentID: "small"})

	trades := b.Match()
	require.Len(t, trades, 1)
	assert.Equal(t, int64(4), trades[0].Qty)

	bids, asks := b.Depth()
	assert.Equal(t, 1, bids, "买盘剩余数量继续挂单")
	assert.Equal(t, 0, asks)

	b.Submit(&Order{Side: SideSell, Symbol: "AAA", Qty: 6, Limit: limitPtr(100), AgentID: "rest"})
	trades = b.Match()
	require.Len(t, trades, 1)
	assert.Equal(t, int64(6), trades[0].Qty)
}

func TestBookZeroQtyNeverTrades(t *testing.T) {
	b := NewBook("AAA")
	b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 0, Limit: limitPtr(100), AgentID: "zero"})
	b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 2, Limit: limitPtr(100), AgentID: "real"})
	b.Submit(&Order{Side: SideSell, Symbol: "AAA", Qty: 2, Limit: limitPtr(100), AgentID: "seller"})

	trades := b.Match()
	require.Len(t, trades, 1)
	assert.Equal(t, "real", trades[0].BuyAgent)
	for _, tr := range trades {
		assert.Positive(t, tr.Qty)
		assert.Positive(t, tr.Price)
	}
}

func TestBookBestBidAsk(t *testing.T) {
	b := NewBook("AAA")
	_, ok := b.BestBid()
	assert.False(t, ok)

	b.Submit(&Order{Side: SideBuy, Symbol: "AAA", Qty: 1, Limit: limitPtr(98), AgentID: "a"})
	b.Submit(&Order{Side: SideSell, Symbol: "AAA", Qty: 1, Limit: limitPtr(102), AgentID: "b"})

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.InDelta(t, 98.0, bid, 1e-9)
	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.InDelta(t, 102.0, ask, 1e-9)

	assert.Empty(t, b.Match(), "未交叉不成交")
}
