package config

import "strings"

// Config 是 Wasim 的主配置载体。
type Config struct {
	App    AppConfig    `toml:"app"`
	Sim    SimConfig    `toml:"sim"`
	Feed   FeedConfig   `toml:"feed"`
	Agents AgentsConfig `toml:"agents"`
	LLM    LLMConfig    `toml:"llm"`
	Report ReportConfig `toml:"report"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	LLMLog   string `toml:"llm_log_path"`
	LLMDump  bool   `toml:"llm_dump_payload"`
	DataDir  string `toml:"data_dir"`
}

// SimConfig 描述一次模拟的市场与风控参数。
type SimConfig struct {
	Days                 int      `toml:"days"`
	Symbols              []string `toml:"symbols"`
	Seed                 int64    `toml:"seed"`
	StartPrice           float64  `toml:"start_price"`
	StartCash            float64  `toml:"start_cash"`
	MaxPositionPerSymbol int64    `toml:"max_position_per_symbol"`
	MaxGrossExposure     float64  `toml:"max_gross_exposure"`
	FeeBps               float64  `toml:"fee_bps"`
	SlippageBps          float64  `toml:"slippage_bps"`
	DefaultOrderQty      int64    `toml:"default_order_qty"`
	PriceFloor           float64  `toml:"price_floor"`
	MaxConcurrentRuns    int      `toml:"max_concurrent_runs"`
	Goal                 string   `toml:"goal"`
}

// NormalizedSymbols 返回大写去重后的符号列表（保持顺序）。
func (s SimConfig) NormalizedSymbols() []string {
	seen := make(map[string]bool, len(s.Symbols))
	out := make([]string, 0, len(s.Symbols))
	for _, sym := range s.Symbols {
		u := strings.ToUpper(strings.TrimSpace(sym))
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// FeedConfig 选择价格来源。
type FeedConfig struct {
	Source     string            `toml:"source"` // "random_walk" | "binance"
	Drift      float64           `toml:"drift"`
	Volatility float64           `toml:"volatility"`
	Binance    BinanceFeedConfig `toml:"binance"`
}

type BinanceFeedConfig struct {
	BaseURL      string `toml:"base_url"`
	Interval     string `toml:"interval"`
	LookbackDays int    `toml:"lookback_days"`
}

// AgentsConfig 控制三个决策源的模式与合并策略。
type AgentsConfig struct {
	FundamentalMode string   `toml:"fundamental_mode"` // "rule" | "llm"
	MacroMode       string   `toml:"macro_mode"`
	SentimentMode   string   `toml:"sentiment_mode"`
	Primary         string   `toml:"primary"`
	Priority        []string `toml:"priority"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	Parallel        bool     `toml:"parallel"`
	ProfilesPath    string   `toml:"profiles_path"`
}

// LLMConfig 描述 OpenAI 兼容接口的访问方式。
type LLMConfig struct {
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxRetries     int     `toml:"max_retries"`
}

// ReportConfig 控制图表产出。
type ReportConfig struct {
	Dir      string `toml:"dir"`
	Snapshot bool   `toml:"snapshot"` // 使用 headless 浏览器另存 PNG
}
