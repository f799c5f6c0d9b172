package agent

import (
	"context"
	"math"

	"wasim/internal/config"
	"wasim/internal/decision"
)

// Macro 规则版动量：动量越过阈值则顺势下注。
type Macro struct {
	Profile config.MacroProfile
}

func (m *Macro) Role() string { return decision.RoleMacro }

func (m *Macro) Decide(ctx context.Context, obs decision.Observation, goal string) (decision.Result, error) {
	cap := m.Profile.QtyCap
	thresh := m.Profile.Threshold

	res := decision.Result{Role: m.Role(), Reasoning: "rule-based momentum"}
	for _, sym := range obs.SortedSymbols() {
		ft := obs.Symbols[sym]
		mom := ft.Momentum
		qty := scaledQty(math.Abs(mom), thresh, 4, cap)
		switch {
		case mom > thresh:
			res.Actions = append(res.Actions, roleAction(decision.KindBuy, sym, qty, "momentum-up", m.Role()))
		case mom < -thresh:
			res.Actions = append(res.Actions, roleAction(decision.KindSell, sym, qty, "momentum-down", m.Role()))
		default:
			res.Actions = append(res.Actions, roleAction(decision.KindHold, sym, 0, "momentum-flat", m.Role()))
		}
	}
	return res, nil
}
