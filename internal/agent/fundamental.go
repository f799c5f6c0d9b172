package agent

import (
	"context"
	"math"

	"wasim/internal/config"
	"wasim/internal/decision"
)

// Fundamental 规则版均值回归：价格偏离 SMA 超出波动调节后的阈值即反向下注。
type Fundamental struct {
	Profile config.FundamentalProfile
}

func (f *Fundamental) Role() string { return decision.RoleFundamental }

func (f *Fundamental) Decide(ctx context.Context, obs decision.Observation, goal string) (decision.Result, error) {
	cap := f.Profile.QtyCap
	base := f.Profile.BaseThreshold

	res := decision.Result{Role: f.Role(), Reasoning: "rule-based mean-reversion"}
	for _, sym := range obs.SortedSymbols() {
		ft := obs.Symbols[sym]
		vol := math.Max(1e-6, ft.Volatility)
		thresh := base + 0.5*vol
		dev := 0.0
		if ft.SMA > 0 {
			dev = ft.Price/ft.SMA - 1.0
		}
		qty := scaledQty(math.Abs(dev), thresh, 5, cap)
		switch {
		case dev < -thresh:
			res.Actions = append(res.Actions, roleAction(decision.KindBuy, sym, qty, "mean-reversion", f.Role()))
		case dev > thresh:
			res.Actions = append(res.Actions, roleAction(decision.KindSell, sym, qty, "mean-reversion", f.Role()))
		default:
			res.Actions = append(res.Actions, roleAction(decision.KindHold, sym, 0, "near-sma", f.Role()))
		}
	}
	return res, nil
}

// scaledQty 把信号强度线性映射到 [0, cap] 的整数数量。
func scaledQty(strength, thresh float64, scale int64, cap int64) int64 {
	qty := int64(strength / (thresh + 1e-6) * float64(scale))
	if qty < 0 {
		qty = 0
	}
	if qty > cap {
		qty = cap
	}
	return qty
}

func roleAction(kind, sym string, qty int64, reason, role string) decision.Action {
	return decision.Action{Kind: kind, Symbol: sym, Qty: qty, Reason: reason, Source: role}
}
