package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Sim.validate(); err != nil {
		return err
	}
	if err := c.Feed.validate(); err != nil {
		return err
	}
	if err := c.Agents.validate(c); err != nil {
		return err
	}
	return nil
}

func (s *SimConfig) validate() error {
	if len(s.NormalizedSymbols()) == 0 {
		return fmt.Errorf("sim.symbols requires at least one symbol")
	}
	if s.MaxGrossExposure < s.StartPrice {
		return fmt.Errorf("sim.max_gross_exposure (%.2f) is below a single unit at start price", s.MaxGrossExposure)
	}
	return nil
}

func (f *FeedConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(f.Source)) {
	case "random_walk", "binance":
		return nil
	default:
		return fmt.Errorf("feed.source must be random_walk or binance, got %q", f.Source)
	}
}

func (a *AgentsConfig) validate(c *Config) error {
	valid := map[string]bool{"rule": true, "llm": true}
	modes := map[string]string{
		"agents.fundamental_mode": a.FundamentalMode,
		"agents.macro_mode":       a.MacroMode,
		"agents.sentiment_mode":   a.SentimentMode,
	}
	llmWanted := false
	for key, mode := range modes {
		if !valid[strings.ToLower(mode)] {
			return fmt.Errorf("%s must be rule or llm, got %q", key, mode)
		}
		if strings.EqualFold(mode, "llm") {
			llmWanted = true
		}
	}
	if llmWanted && strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required when any agent runs in llm mode")
	}
	known := map[string]bool{"fundamental": true, "macro": true, "sentiment": true}
	if !known[strings.ToLower(a.Primary)] {
		return fmt.Errorf("agents.primary must be one of fundamental/macro/sentiment, got %q", a.Primary)
	}
	for _, p := range a.Priority {
		if !known[strings.ToLower(p)] {
			return fmt.Errorf("agents.priority contains unknown role %q", p)
		}
	}
	return nil
}
