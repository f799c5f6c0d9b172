package config

// 默认值常量
const (
	defaultAppEnv        = "dev"
	defaultAppLogLevel   = "info"
	defaultAppHTTPAddr   = ":9992"
	defaultAppDataDir    = "data"
	defaultSimDays       = 10
	defaultSimSeed       = 123
	defaultSimStartPrice = 100.0
	defaultSimStartCash  = 100_000.0
	defaultSimMaxPos     = 200
	defaultSimMaxGross   = 200_000.0
	defaultSimFeeBps     = 5.0
	defaultSimSlipBps    = 10.0
	defaultSimOrderQty   = 10
	defaultSimPriceFloor = 1.0
	defaultSimMaxRuns    = 2
	defaultFeedSource    = "random_walk"
	defaultFeedDrift     = 0.0005
	defaultFeedVol       = 0.02
	defaultBinanceREST   = "https://api.binance.com"
	defaultBinanceTF     = "1d"
	defaultBinanceLook   = 365
	defaultAgentMode     = "rule"
	defaultAgentPrimary  = "fundamental"
	defaultAgentTimeout  = 30
	defaultProfilesPath  = "configs/profiles.yaml"
	defaultLLMBaseURL    = "https://api.openai.com/v1"
	defaultLLMModel      = "gpt-4o-mini"
	defaultLLMTemp       = 0.2
	defaultLLMTimeout    = 60
	defaultLLMRetries    = 2
	defaultReportDir     = "artifacts"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Sim.applyDefaults()
	c.Feed.applyDefaults()
	c.Agents.applyDefaults()
	c.LLM.applyDefaults()
	c.Report.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if a.Env == "" {
		a.Env = defaultAppEnv
	}
	if a.LogLevel == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if a.HTTPAddr == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
	if a.DataDir == "" {
		a.DataDir = defaultAppDataDir
	}
}

func (s *SimConfig) applyDefaults() {
	if s.Days <= 0 {
		s.Days = defaultSimDays
	}
	if len(s.Symbols) == 0 {
		s.Symbols = []string{"WASI"}
	}
	if s.Seed == 0 {
		s.Seed = defaultSimSeed
	}
	if s.StartPrice <= 0 {
		s.StartPrice = defaultSimStartPrice
	}
	if s.StartCash <= 0 {
		s.StartCash = defaultSimStartCash
	}
	if s.MaxPositionPerSymbol <= 0 {
		s.MaxPositionPerSymbol = defaultSimMaxPos
	}
	if s.MaxGrossExposure <= 0 {
		s.MaxGrossExposure = defaultSimMaxGross
	}
	if s.FeeBps < 0 {
		s.FeeBps = 0
	} else if s.FeeBps == 0 {
		s.FeeBps = defaultSimFeeBps
	}
	if s.SlippageBps < 0 {
		s.SlippageBps = 0
	} else if s.SlippageBps == 0 {
		s.SlippageBps = defaultSimSlipBps
	}
	if s.DefaultOrderQty <= 0 {
		s.DefaultOrderQty = defaultSimOrderQty
	}
	if s.PriceFloor <= 0 {
		s.PriceFloor = defaultSimPriceFloor
	}
	if s.MaxConcurrentRuns <= 0 {
		s.MaxConcurrentRuns = defaultSimMaxRuns
	}
}

func (f *FeedConfig) applyDefaults() {
	if f.Source == "" {
		f.Source = defaultFeedSource
	}
	if f.Drift == 0 {
		f.Drift = defaultFeedDrift
	}
	if f.Volatility <= 0 {
		f.Volatility = defaultFeedVol
	}
	if f.Binance.BaseURL == "" {
		f.Binance.BaseURL = defaultBinanceREST
	}
	if f.Binance.Interval == "" {
		f.Binance.Interval = defaultBinanceTF
	}
	if f.Binance.LookbackDays <= 0 {
		f.Binance.LookbackDays = defaultBinanceLook
	}
}

func (a *AgentsConfig) applyDefaults() {
	if a.FundamentalMode == "" {
		a.FundamentalMode = defaultAgentMode
	}
	if a.MacroMode == "" {
		a.MacroMode = defaultAgentMode
	}
	if a.SentimentMode == "" {
		a.SentimentMode = defaultAgentMode
	}
	if a.Primary == "" {
		a.Primary = defaultAgentPrimary
	}
	if len(a.Priority) == 0 {
		a.Priority = []string{"fundamental", "macro", "sentiment"}
	}
	if a.TimeoutSeconds <= 0 {
		a.TimeoutSeconds = defaultAgentTimeout
	}
	if a.ProfilesPath == "" {
		a.ProfilesPath = defaultProfilesPath
	}
}

func (l *LLMConfig) applyDefaults() {
	if l.BaseURL == "" {
		l.BaseURL = defaultLLMBaseURL
	}
	if l.Model == "" {
		l.Model = defaultLLMModel
	}
	if l.Temperature <= 0 {
		l.Temperature = defaultLLMTemp
	}
	if l.TimeoutSeconds <= 0 {
		l.TimeoutSeconds = defaultLLMTimeout
	}
	if l.MaxRetries <= 0 {
		l.MaxRetries = defaultLLMRetries
	}
}

func (r *ReportConfig) applyDefaults() {
	if r.Dir == "" {
		r.Dir = defaultReportDir
	}
}
