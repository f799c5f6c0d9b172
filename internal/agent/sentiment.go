package agent

import (
	"context"

	"wasim/internal/config"
	"wasim/internal/decision"
)

// Sentiment 规则版突破：价格突破滚动高低点（含容差）则跟进，数量固定。
type Sentiment struct {
	Profile config.SentimentProfile
}

func (s *Sentiment) Role() string { return decision.RoleSentiment }

func (s *Sentiment) Decide(ctx context.Context, obs decision.Observation, goal string) (decision.Result, error) {
	eps := s.Profile.Epsilon
	qty := s.Profile.Qty

	res := decision.Result{Role: s.Role(), Reasoning: "rule-based breakout"}
	for _, sym := range obs.SortedSymbols() {
		ft := obs.Symbols[sym]
		switch {
		case ft.Price >= ft.High*(1+eps):
			res.Actions = append(res.Actions, roleAction(decision.KindBuy, sym, qty, "breakout-high", s.Role()))
		case ft.Price <= ft.Low*(1-eps):
			res.Actions = append(res.Actions, roleAction(decision.KindSell, sym, qty, "breakout-low", s.Role()))
		default:
			res.Actions = append(res.Actions, roleAction(decision.KindHold, sym, 0, "range", s.Role()))
		}
	}
	return res, nil
}
