package decision

import "strings"

// Merger 将多个决策源的独立提案归并为每标的恰好一个动作。
// 纯函数、无状态：多数票决定方向，平票走确定性的优先级链。
type Merger struct {
	Primary    string   // 平票时优先采纳的角色
	Priority   []string // 其余角色的固定回退顺序
	DefaultQty int64    // 合并后的数量由策略固定，不对投票求均值
}

// Merge 对观测集内的每个标的产出恰好一个动作，输出按标的排序。
// 计分：买 +1、卖 -1、持有 0。
// 平票链：primary 的非持有票 → 优先级顺序中首个非持有票 → 持有。
func (m Merger) Merge(votes []Action, obs Observation) []Action {
	qty := m.DefaultQty
	if qty <= 0 {
		qty = 10
	}
	bySymbol := make(map[string][]Action, len(obs.Symbols))
	for _, v := range votes {
		bySymbol[v.Symbol] = append(bySymbol[v.Symbol], v)
	}

	out := make([]Action, 0, len(obs.Symbols))
	for _, sym := range obs.SortedSymbols() {
		symVotes := bySymbol[sym]
		score := 0
		for _, v := range symVotes {
			switch v.Kind {
			case KindBuy:
				score++
			case KindSell:
				score--
			}
		}
		switch {
		case score > 0:
			out = append(out, Action{Kind: KindBuy, Symbol: sym, Qty: qty, Reason: "merged-majority"})
		case score < 0:
			out = append(out, Action{Kind: KindSell, Symbol: sym, Qty: qty, Reason: "merged-majority"})
		default:
			out = append(out, m.breakTie(sym, symVotes, qty))
		}
	}
	return out
}

func (m Merger) breakTie(sym string, votes []Action, qty int64) Action {
	if v, ok := firstNonHold(votes, m.Primary); ok {
		return Action{Kind: v.Kind, Symbol: sym, Qty: qty, Reason: "merged-tie-primary"}
	}
	for _, role := range m.Priority {
		if strings.EqualFold(role, m.Primary) {
			continue
		}
		if v, ok := firstNonHold(votes, role); ok {
			return Action{Kind: v.Kind, Symbol: sym, Qty: qty, Reason: "merged-tie-priority"}
		}
	}
	return Action{Kind: KindHold, Symbol: sym, Qty: 0, Reason: "merged-all-hold"}
}

func firstNonHold(votes []Action, role string) (Action, bool) {
	for _, v := range votes {
		if strings.EqualFold(v.Source, role) && v.Kind != KindHold {
			return v, true
		}
	}
	return Action{}, false
}
