package agent

import (
	"context"
	"fmt"
	"strings"

	"wasim/internal/decision"
	"wasim/internal/logger"
	"wasim/internal/provider"
)

const jsonGuide = `Return ONLY a JSON object in this exact shape:
{
  "reasoning": "brief explanation of the decision",
  "actions": [
    {"action": "buy|sell|hold", "symbol": "<TICKER>", "qty": <int>, "price": null, "reason": "short text"}
  ]
}
- Only use symbols given in the context.
- qty is a non-negative integer (0..100 recommended).
- Prefer "hold" when there is no clear signal.`

// LLMAgent 用外部模型替代规则逻辑的决策源。
// 任何失败（超时、坏响应）都以错误返回，由协调器按空提案处理。
type LLMAgent struct {
	RoleName string
	Client   *provider.OpenAIChatClient
}

func (a *LLMAgent) Role() string { return a.RoleName }

func (a *LLMAgent) Decide(ctx context.Context, obs decision.Observation, goal string) (decision.Result, error) {
	if a.Client == nil {
		return decision.Result{}, fmt.Errorf("llm agent %s has no client", a.RoleName)
	}
	system := fmt.Sprintf("You are a %s market analyst. Your output must be strict JSON.", a.RoleName)
	user := a.buildUserPrompt(obs, goal)

	logger.LogLLMRequest(a.RoleName, system, user)
	raw, err := a.Client.CallWithMessages(ctx, system, user)
	if err != nil {
		return decision.Result{}, fmt.Errorf("%s llm call failed: %w", a.RoleName, err)
	}
	logger.LogLLMResponse(a.RoleName, raw)

	res, err := decision.ParseLLMResult(a.RoleName, raw, obs)
	if err != nil {
		return decision.Result{}, err
	}
	return res, nil
}

func (a *LLMAgent) buildUserPrompt(obs decision.Observation, goal string) string {
	var b strings.Builder
	if goal == "" {
		goal = "(none provided)"
	}
	fmt.Fprintf(&b, "User goal: %s\n\n", goal)
	fmt.Fprintf(&b, "Day %d. Symbols and features:\n", obs.Day)
	for _, sym := range obs.SortedSymbols() {
		ft := obs.Symbols[sym]
		fmt.Fprintf(&b, "- %s: price=%.2f sma=%.2f momentum=%.4f volatility=%.4f high=%.2f low=%.2f\n",
			sym, ft.Price, ft.SMA, ft.Momentum, ft.Volatility, ft.High, ft.Low)
	}
	b.WriteString("\n")
	b.WriteString(jsonGuide)
	return b.String()
}
