package agent

import (
	"time"

	"wasim/internal/config"
	"wasim/internal/decision"
	"wasim/internal/provider"
)

// BuildSources 按配置装配三个决策源，顺序固定为
// fundamental → macro → sentiment，与合并的默认优先级一致。
// llm 模式共用同一个客户端实例。
func BuildSources(agents config.AgentsConfig, llm config.LLMConfig, profiles config.AgentProfiles) []decision.Source {
	var client *provider.OpenAIChatClient
	needLLM := agents.FundamentalMode == "llm" || agents.MacroMode == "llm" || agents.SentimentMode == "llm"
	if needLLM {
		client = &provider.OpenAIChatClient{
			BaseURL:     llm.BaseURL,
			APIKey:      llm.APIKey,
			Model:       llm.Model,
			Temperature: llm.Temperature,
			Timeout:     time.Duration(llm.TimeoutSeconds) * time.Second,
			MaxRetries:  llm.MaxRetries,
		}
	}

	pick := func(mode, role string, rule decision.Source) decision.Source {
		if mode == "llm" {
			return &LLMAgent{RoleName: role, Client: client}
		}
		return rule
	}
	return []decision.Source{
		pick(agents.FundamentalMode, decision.RoleFundamental, &Fundamental{Profile: profiles.Fundamental}),
		pick(agents.MacroMode, decision.RoleMacro, &Macro{Profile: profiles.Macro}),
		pick(agents.SentimentMode, decision.RoleSentiment, &Sentiment{Profile: profiles.Sentiment}),
	}
}
