package market

import "sort"

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// LiquidityAgentID 是虚拟流动性对手方的成交方标识。
const LiquidityAgentID = "lp"

// Order 一笔待撮合委托。Limit 为 nil 表示市价单。
type Order struct {
	Side    string
	Symbol  string
	Qty     int64
	Limit   *float64
	AgentID string
}

// Trade 一笔成交，结算的最小单位；创建后不可变。
type Trade struct {
	Symbol    string
	Price     float64
	Qty       int64
	BuyAgent  string
	SellAgent string
}

// Book 单一符号的委托簿：买盘按价格降序，卖盘按价格升序，
// 同价按到达顺序排队。
type Book struct {
	Symbol string
	bids   []*Order
	asks   []*Order
}

func NewBook(symbol string) *Book {
	return &Book{Symbol: symbol}
}

// 市价单按本方向最激进的价格参与排序。
func (b *Book) effectivePrice(o *Order) float64 {
	if o.Limit != nil {
		return *o.Limit
	}
	if o.Side == SideBuy {
		return maxEffectivePrice
	}
	return 0
}

const maxEffectivePrice = 1e18

// Submit 将委托插入正确的一侧并保持排序；同价保持先到先得。
func (b *Book) Submit(o *Order) {
	if o.Side == SideBuy {
		b.bids = append(b.bids, o)
		sort.SliceStable(b.bids, func(i, j int) bool {
			return b.effectivePrice(b.bids[i]) > b.effectivePrice(b.bids[j])
		})
		return
	}
	b.asks = append(b.asks, o)
	sort.SliceStable(b.asks, func(i, j int) bool {
		return b.effectivePrice(b.asks[i]) < b.effectivePrice(b.asks[j])
	})
}

// Match 反复撮合最优买卖盘直到不再交叉，返回按执行顺序排列的成交。
// 成交价规则：双限价取中点；一侧市价时取对手方挂单价。
func (b *Book) Match() []Trade {
	var trades []Trade
	for len(b.bids) > 0 && len(b.asks) > 0 {
		// 零量委托会被记录在簿中，但绝不产生成交。
		if b.bids[0].Qty == 0 {
			b.bids = b.bids[1:]
			continue
		}
		if b.asks[0].Qty == 0 {
			b.asks = b.asks[1:]
			continue
		}
		bid, ask := b.bids[0], b.asks[0]
		bp := b.effectivePrice(bid)
		ap := b.effectivePrice(ask)
		if bp < ap {
			break
		}
		var px float64
		switch {
		case bid.Limit != nil && ask.Limit != nil:
			px = (*bid.Limit + *ask.Limit) / 2
		case bid.Limit == nil && ask.Limit != nil:
			px = *ask.Limit
		case bid.Limit != nil && ask.Limit == nil:
			px = *bid.Limit
		default:
			// 双市价互搏无参考价，不撮合。
			return trades
		}
		qty := min64(bid.Qty, ask.Qty)
		trades = append(trades, Trade{
			Symbol:    b.Symbol,
			Price:     px,
			Qty:       qty,
			BuyAgent:  bid.AgentID,
			SellAgent: ask.AgentID,
		})
		bid.Qty -= qty
		ask.Qty -= qty
		if bid.Qty == 0 {
			b.bids = b.bids[1:]
		}
		if ask.Qty == 0 {
			b.asks = b.asks[1:]
		}
	}
	return trades
}

// BestBid 返回最优买价；无买盘时返回 false。
func (b *Book) BestBid() (float64, bool) {
	if len(b.bids) == 0 {
		return 0, false
	}
	return b.effectivePrice(b.bids[0]), true
}

// BestAsk 返回最优卖价；无卖盘时返回 false。
func (b *Book) BestAsk() (float64, bool) {
	if len(b.asks) == 0 {
		return 0, false
	}
	return b.effectivePrice(b.asks[0]), true
}

// Depth 返回当前买卖盘数量。
func (b *Book) Depth() (bids, asks int) {
	return len(b.bids), len(b.asks)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
