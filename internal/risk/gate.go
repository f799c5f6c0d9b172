package risk

import (
	"math"
	"strings"

	"wasim/internal/decision"
	"wasim/internal/ledger"
)

// Gate 在提案成为委托前施加硬性上限，逐标的裁剪数量。
// 只裁剪、不报错；各标的相互独立，仅通过累计总敞口相互影响。
type Gate struct {
	MaxPositionPerSymbol int64
	MaxGrossExposure     float64
}

// Enforce 依次应用裁剪规则，返回同形状、数量可能缩减的动作，
// 并在 RiskNote 标注触发的上限。规则顺序固定，后续规则只会进一步
// 收紧先前的裁剪，绝不放宽：
//  1. 非正数量归零
//  2. 买入：仓位余量 → 现金可负担量 → 总敞口预算
//  3. 卖出：不超过当前持仓（禁止做空）
func (g Gate) Enforce(actions []decision.Action, pf *ledger.Portfolio, prices map[string]float64) []decision.Action {
	exposure := pf.GrossExposure(prices)
	out := make([]decision.Action, 0, len(actions))
	for _, a := range actions {
		if a.Kind == decision.KindHold {
			out = append(out, a)
			continue
		}
		price := prices[a.Symbol]
		pos := pf.Position(a.Symbol)
		qty := a.Qty
		var fired []string

		if qty <= 0 {
			a.Qty = 0
			a.RiskNote = "non-positive-qty"
			out = append(out, a)
			continue
		}

		switch a.Kind {
		case decision.KindBuy:
			room := g.MaxPositionPerSymbol - pos
			if room < 0 {
				room = 0
			}
			if room == 0 {
				qty = 0
				fired = append(fired, "position-cap")
			} else if qty > room {
				qty = room
				fired = append(fired, "position-cap")
			}

			if qty > 0 && price > 0 {
				affordable := int64(math.Floor(pf.Cash / price))
				if affordable <= 0 {
					qty = 0
					fired = append(fired, "cash-cap")
				} else if qty > affordable {
					qty = affordable
					fired = append(fired, "cash-cap")
				}
			}

			if qty > 0 && price > 0 {
				notional := float64(qty) * price
				if exposure+notional > g.MaxGrossExposure {
					fit := int64(math.Floor((g.MaxGrossExposure - exposure) / price))
					if fit <= 0 {
						qty = 0
					} else if qty > fit {
						qty = fit
					}
					fired = append(fired, "exposure-cap")
				}
			}
			exposure += float64(qty) * price

		case decision.KindSell:
			held := pos
			if held < 0 {
				held = 0
			}
			if qty > held {
				qty = held
				fired = append(fired, "sell-cap")
			}
		}

		a.Qty = qty
		if len(fired) > 0 {
			a.RiskNote = strings.Join(fired, ",")
		}
		out = append(out, a)
	}
	return out
}
