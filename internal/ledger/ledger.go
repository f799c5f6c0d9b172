package ledger

import "wasim/internal/market"

// Portfolio 执行主体的资金与持仓。只由结算在每日最终数量敲定后变更一次。
type Portfolio struct {
	Cash      float64
	Positions map[string]int64
}

func NewPortfolio(cash float64, symbols []string) *Portfolio {
	positions := make(map[string]int64, len(symbols))
	for _, s := range symbols {
		positions[s] = 0
	}
	return &Portfolio{Cash: cash, Positions: positions}
}

// Position 返回某标的当前持仓（未知标的为 0）。
func (p *Portfolio) Position(symbol string) int64 {
	return p.Positions[symbol]
}

// Equity 权益永远只由 (cash, positions, 现价) 重算，无任何隐藏状态。
func (p *Portfolio) Equity(prices map[string]float64) float64 {
	eq := p.Cash
	for sym, qty := range p.Positions {
		eq += float64(qty) * prices[sym]
	}
	return eq
}

// GrossExposure 全部持仓绝对值按现价计的名义总额。
func (p *Portfolio) GrossExposure(prices map[string]float64) float64 {
	total := 0.0
	for sym, qty := range p.Positions {
		q := qty
		if q < 0 {
			q = -q
		}
		total += float64(q) * prices[sym]
	}
	return total
}

// Ledger 把已执行的成交落入 Portfolio，计算手续费。
type Ledger struct {
	agentID string
	feeRate float64 // 小数形式
}

// New 构造结算账本。feeBps 为基点形式的费率。
func New(agentID string, feeBps float64) *Ledger {
	return &Ledger{agentID: agentID, feeRate: feeBps / 10_000.0}
}

// FeeRate 返回小数费率。
func (l *Ledger) FeeRate() float64 { return l.feeRate }

// Apply 将成交逐笔结算。只有标记为执行主体的一侧才变更账本：
// 买方主体 cash -= 名义+费，持仓增加；卖方主体对称。
// 纯 LP 对 LP 的成交不会重复入账。返回当日费用合计。
func (l *Ledger) Apply(p *Portfolio, trades []market.Trade) float64 {
	fees := 0.0
	for _, t := range trades {
		notional := t.Price * float64(t.Qty)
		fee := notional * l.feeRate
		if t.BuyAgent == l.agentID {
			p.Cash -= notional + fee
			p.Positions[t.Symbol] += t.Qty
			fees += fee
		}
		if t.SellAgent == l.agentID {
			p.Cash += notional - fee
			p.Positions[t.Symbol] -= t.Qty
			fees += fee
		}
	}
	return fees
}
