package market

import (
	"fmt"
	"math"
	"sort"

	"wasim/internal/logger"
	"wasim/internal/pricefeed"
)

// ErrUnknownSymbol 表示委托引用了市场未跟踪的标的。
var ErrUnknownSymbol = fmt.Errorf("market: unknown symbol")

// Instrument 持有单一标的的现价与委托簿。价格是估值与下一跳的唯一依据。
type Instrument struct {
	Symbol string
	Price  float64
	Book   *Book
}

// Config 构造 Market 所需的全部参数。
type Config struct {
	Symbols     []string
	StartPrice  float64
	SlippageBps float64
	PriceFloor  float64
	Source      pricefeed.Source
}

// Market 拥有全部 Instrument，推进模拟时间，并把风控后的动作转为成交。
//
// 执行采用混合保证流动性模型：每笔正数量委托除进入委托簿外，
// 还立即按现价加滑点与虚拟对手方成交，确保当日一定全量成交
// （决策每日重算，不存在跨日重试挂单的机制）。
type Market struct {
	day         int
	slippage    float64 // 小数形式，比如 10bps = 0.001
	priceFloor  float64
	source      pricefeed.Source
	symbols     []string // 排序后的固定遍历顺序，保证确定性
	instruments map[string]*Instrument
	lpFills     []Trade
}

func New(cfg Config) (*Market, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("market: price source cannot be nil")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("market: at least one symbol required")
	}
	if cfg.StartPrice <= 0 {
		return nil, fmt.Errorf("market: start price must be positive, got %v", cfg.StartPrice)
	}
	floor := cfg.PriceFloor
	if floor <= 0 {
		floor = 1.0
	}
	symbols := append([]string(nil), cfg.Symbols...)
	sort.Strings(symbols)
	instruments := make(map[string]*Instrument, len(symbols))
	for _, s := range symbols {
		instruments[s] = &Instrument{Symbol: s, Price: cfg.StartPrice, Book: NewBook(s)}
	}
	return &Market{
		slippage:    cfg.SlippageBps / 10_000.0,
		priceFloor:  floor,
		source:      cfg.Source,
		symbols:     symbols,
		instruments: instruments,
	}, nil
}

// Day 返回当前日序号（0 起）。
func (m *Market) Day() int { return m.day }

// Symbols 返回跟踪的标的（排序副本）。
func (m *Market) Symbols() []string {
	return append([]string(nil), m.symbols...)
}

// AdvancePrices 向价格源询价并替换每个标的的现价，随后递增日计数。
// 每日必须且只能调用一次，并先于任何下单。
func (m *Market) AdvancePrices() {
	for _, s := range m.symbols {
		ins := m.instruments[s]
		px := m.source.NextPrice(s, ins.Price, m.day)
		// 价格源契约要求正有限值，此处仍钳制到正下限。
		// NaN 与 ±Inf 也落到下限，避免污染后续的成交与权益计算。
		if px < m.priceFloor || math.IsNaN(px) || math.IsInf(px, 0) {
			logger.Warnf("price source returned %.6f for %s, clamped to floor %.2f", px, s, m.priceFloor)
			px = m.priceFloor
		}
		ins.Price = px
	}
	m.day++
}

// Execute 执行混合保证成交：委托入簿，正数量立即与 LP 成交。
// 未知标的快速失败，绝不静默丢弃。
func (m *Market) Execute(order *Order) error {
	ins, ok := m.instruments[order.Symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, order.Symbol)
	}
	ins.Book.Submit(order)
	if order.Qty <= 0 {
		return nil
	}

	last := ins.Price
	var t Trade
	switch order.Side {
	case SideBuy:
		px := last * (1.0 + m.slippage)
		t = Trade{Symbol: order.Symbol, Price: px, Qty: order.Qty, BuyAgent: order.AgentID, SellAgent: LiquidityAgentID}
	case SideSell:
		px := last * (1.0 - m.slippage)
		t = Trade{Symbol: order.Symbol, Price: px, Qty: order.Qty, BuyAgent: LiquidityAgentID, SellAgent: order.AgentID}
	default:
		return nil
	}
	ins.Price = t.Price
	m.lpFills = append(m.lpFills, t)
	return nil
}

// SettleDay 返回当日全部成交（先 LP 成交，再各簿的交叉成交），
// 并清空当日缓冲。簿内撮合若有成交，则以最后成交价更新现价。
func (m *Market) SettleDay() []Trade {
	todays := make([]Trade, 0, len(m.lpFills))
	todays = append(todays, m.lpFills...)
	m.lpFills = nil

	for _, s := range m.symbols {
		ins := m.instruments[s]
		trades := ins.Book.Match()
		if len(trades) > 0 {
			ins.Price = trades[len(trades)-1].Price
			todays = append(todays, trades...)
		}
	}
	return todays
}

// Prices 返回每个标的的现价快照，无副作用。
func (m *Market) Prices() map[string]float64 {
	out := make(map[string]float64, len(m.instruments))
	for s, ins := range m.instruments {
		out[s] = ins.Price
	}
	return out
}

// Price 返回单一标的现价。
func (m *Market) Price(symbol string) (float64, bool) {
	ins, ok := m.instruments[symbol]
	if !ok {
		return 0, false
	}
	return ins.Price, true
}
