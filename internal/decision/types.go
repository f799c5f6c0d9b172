package decision

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// 动作种类（和类型，构造时校验）。
const (
	KindBuy  = "buy"
	KindSell = "sell"
	KindHold = "hold"
)

// 决策源角色。
const (
	RoleFundamental = "fundamental"
	RoleMacro       = "macro"
	RoleSentiment   = "sentiment"
)

// Action 单个标的的一票提案。由决策源产出，经合并与风控后转为委托。
type Action struct {
	Kind     string
	Symbol   string
	Qty      int64
	Limit    *float64 // nil 表示市价
	Reason   string
	RiskNote string // 风控裁剪说明（若有）
	Source   string // 提案角色，用于平票优先级
}

// NewAction 构造并校验一个动作：种类必须合法，数量不可为负。
func NewAction(kind, symbol string, qty int64, limit *float64, reason string) (Action, error) {
	kind = NormalizeKind(kind)
	switch kind {
	case KindBuy, KindSell, KindHold:
	default:
		return Action{}, fmt.Errorf("invalid action kind: %q", kind)
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Action{}, fmt.Errorf("action requires a symbol")
	}
	if qty < 0 {
		return Action{}, fmt.Errorf("action qty must be >= 0, got %d", qty)
	}
	if limit != nil && *limit <= 0 {
		return Action{}, fmt.Errorf("limit price must be positive, got %v", *limit)
	}
	return Action{Kind: kind, Symbol: symbol, Qty: qty, Limit: limit, Reason: reason}, nil
}

// Features 单标的的观测特征束，每日基于价格历史重算，从不跨日保留。
type Features struct {
	Price      float64 `json:"price"`
	SMA        float64 `json:"sma"`
	Momentum   float64 `json:"momentum"`
	Volatility float64 `json:"volatility"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
}

// Observation 一日的全部标的特征。
type Observation struct {
	Day     int
	Symbols map[string]Features
}

// SortedSymbols 返回观测集内标的的确定性遍历顺序。
func (o Observation) SortedSymbols() []string {
	out := make([]string, 0, len(o.Symbols))
	for s := range o.Symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Result 一个决策源的当日输出。
type Result struct {
	Role      string
	Reasoning string
	Actions   []Action
}

// Source 决策源契约。实现可以是规则，也可以是外部模型调用；
// 阻塞调用由实现方自约超时，失败时由协调器按空提案处理。
type Source interface {
	Role() string
	Decide(ctx context.Context, obs Observation, goal string) (Result, error)
}
