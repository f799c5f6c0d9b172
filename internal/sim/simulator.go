package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wasim/internal/agent"
	"wasim/internal/config"
	"wasim/internal/logger"
	"wasim/internal/market"
	"wasim/internal/pricefeed"
)

// ResultStore 持久化运行记录与每日产物；实现见 internal/store。
type ResultStore interface {
	InsertRun(ctx context.Context, run Run) error
	UpdateRunStatus(ctx context.Context, id, status, message string) error
	FinishRun(ctx context.Context, run Run) error
	SaveOutcome(ctx context.Context, runID string, out *Outcome) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context) ([]Run, error)
	HistoryOf(ctx context.Context, runID string) ([]HistoryRow, error)
	TradesOf(ctx context.Context, runID string) ([]TradeRow, error)
	TranscriptOf(ctx context.Context, runID string) ([]TranscriptEntry, error)
}

// RunRequest 允许逐次覆盖少量参数，未填字段沿用配置。
type RunRequest struct {
	Days    int      `json:"days"`
	Symbols []string `json:"symbols"`
	Seed    int64    `json:"seed"`
	Goal    string   `json:"goal"`
	Source  string   `json:"feed_source"`
}

type SimulatorConfig struct {
	Base     config.Config
	Profiles *config.ProfileLoader
	Store    ResultStore
	Notifier Notifier
}

// Simulator 负责创建、排队并在后台推演模拟任务。
type Simulator struct {
	base     config.Config
	profiles *config.ProfileLoader
	store    ResultStore
	notifier Notifier

	sem     chan struct{}
	baseCtx context.Context
}

func NewSimulator(cfg SimulatorConfig) (*Simulator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("result store 不能为空")
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	maxConcurrent := cfg.Base.Sim.MaxConcurrentRuns
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Simulator{
		base:     cfg.Base,
		profiles: cfg.Profiles,
		store:    cfg.Store,
		notifier: notifier,
		sem:      make(chan struct{}, maxConcurrent),
		baseCtx:  context.Background(),
	}, nil
}

func (s *Simulator) SetContext(ctx context.Context) {
	if ctx != nil {
		s.baseCtx = ctx
	}
}

func (s *Simulator) ctx() context.Context {
	if s.baseCtx != nil {
		return s.baseCtx
	}
	return context.Background()
}

// StartRun 创建模拟任务并立即返回，推演在后台进行。
func (s *Simulator) StartRun(req RunRequest) (Run, error) {
	cfg, err := s.resolveConfig(req)
	if err != nil {
		return Run{}, err
	}
	now := time.Now()
	run := Run{
		ID:        uuid.NewString(),
		Status:    RunStatusPending,
		Message:   "queued",
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertRun(s.ctx(), run); err != nil {
		return Run{}, err
	}
	go s.runLoop(run.ID, cfg)
	return run, nil
}

// GetRun / ListRuns / HistoryOf / TradesOf / TranscriptOf 直接透传存储层。
func (s *Simulator) GetRun(ctx context.Context, id string) (Run, bool, error) {
	return s.store.GetRun(ctx, id)
}

func (s *Simulator) ListRuns(ctx context.Context) ([]Run, error) {
	return s.store.ListRuns(ctx)
}

func (s *Simulator) HistoryOf(ctx context.Context, id string) ([]HistoryRow, error) {
	return s.store.HistoryOf(ctx, id)
}

func (s *Simulator) TradesOf(ctx context.Context, id string) ([]TradeRow, error) {
	return s.store.TradesOf(ctx, id)
}

func (s *Simulator) TranscriptOf(ctx context.Context, id string) ([]TranscriptEntry, error) {
	return s.store.TranscriptOf(ctx, id)
}

func (s *Simulator) resolveConfig(req RunRequest) (RunConfig, error) {
	sim := s.base.Sim
	cfg := RunConfig{
		Days:                 sim.Days,
		Symbols:              sim.NormalizedSymbols(),
		Seed:                 sim.Seed,
		StartPrice:           sim.StartPrice,
		StartCash:            sim.StartCash,
		MaxPositionPerSymbol: sim.MaxPositionPerSymbol,
		MaxGrossExposure:     sim.MaxGrossExposure,
		FeeBps:               sim.FeeBps,
		SlippageBps:          sim.SlippageBps,
		DefaultOrderQty:      sim.DefaultOrderQty,
		FeedSource:           s.base.Feed.Source,
		Goal:                 sim.Goal,
	}
	if req.Days > 0 {
		cfg.Days = req.Days
	}
	if len(req.Symbols) > 0 {
		override := config.SimConfig{Symbols: req.Symbols}
		cfg.Symbols = override.NormalizedSymbols()
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if req.Goal != "" {
		cfg.Goal = req.Goal
	}
	if req.Source != "" {
		cfg.FeedSource = req.Source
	}
	if cfg.Days <= 0 {
		return RunConfig{}, fmt.Errorf("days 必须为正")
	}
	if len(cfg.Symbols) == 0 {
		return RunConfig{}, fmt.Errorf("symbols 不能为空")
	}
	return cfg, nil
}

func (s *Simulator) runLoop(runID string, cfg RunConfig) {
	select {
	case s.sem <- struct{}{}:
	default:
		logger.Warnf("[sim] run %s 等待可用 worker", runID)
		s.sem <- struct{}{}
	}
	defer func() { <-s.sem }()

	ctx := s.ctx()
	_ = s.store.UpdateRunStatus(ctx, runID, RunStatusRunning, "初始化市场…")

	out, err := s.execute(ctx, runID, cfg)
	if err != nil {
		logger.Warnf("[sim] run %s 失败: %v", runID, err)
		_ = s.store.UpdateRunStatus(ctx, runID, RunStatusFailed, err.Error())
		if out != nil {
			// 失败前已完整提交的日仍然落库。
			if serr := s.store.SaveOutcome(ctx, runID, out); serr != nil {
				logger.Warnf("[sim] run %s 保存部分产物失败: %v", runID, serr)
			}
		}
		_ = s.notifier.SendText(fmt.Sprintf("模拟 %s 失败: %v", runID, err))
		return
	}

	if err := s.store.SaveOutcome(ctx, runID, out); err != nil {
		logger.Warnf("[sim] run %s 保存产物失败: %v", runID, err)
	}
	run := Run{
		ID:          runID,
		Status:      RunStatusDone,
		Message:     fmt.Sprintf("%d days, %d trades", out.Stats.Days, out.Stats.Trades),
		Config:      cfg,
		Stats:       out.Stats,
		UpdatedAt:   time.Now(),
		CompletedAt: time.Now(),
	}
	if err := s.store.FinishRun(ctx, run); err != nil {
		logger.Warnf("[sim] run %s 收尾落库失败: %v", runID, err)
	}
	_ = s.notifier.SendText(fmt.Sprintf(
		"模拟 %s 完成：权益 %.2f（收益 %.2f%%，最大回撤 %.2f%%，成交 %d 笔）",
		runID, out.Stats.FinalEquity, out.Stats.ReturnPct, out.Stats.MaxDrawdownPct, out.Stats.Trades))
}

func (s *Simulator) execute(ctx context.Context, runID string, cfg RunConfig) (*Outcome, error) {
	source, err := s.buildFeed(ctx, cfg)
	if err != nil {
		return nil, err
	}
	mkt, err := market.New(market.Config{
		Symbols:     cfg.Symbols,
		StartPrice:  cfg.StartPrice,
		SlippageBps: cfg.SlippageBps,
		PriceFloor:  s.base.Sim.PriceFloor,
		Source:      source,
	})
	if err != nil {
		return nil, err
	}

	profiles := config.DefaultProfiles()
	if s.profiles != nil {
		profiles = s.profiles.Snapshot().Agents
	}
	sources := agent.BuildSources(s.base.Agents, s.base.LLM, profiles)

	simCfg := s.base.Sim
	simCfg.Days = cfg.Days
	simCfg.StartCash = cfg.StartCash
	simCfg.DefaultOrderQty = cfg.DefaultOrderQty
	simCfg.MaxPositionPerSymbol = cfg.MaxPositionPerSymbol
	simCfg.MaxGrossExposure = cfg.MaxGrossExposure
	simCfg.FeeBps = cfg.FeeBps

	coord, err := NewCoordinator(CoordinatorConfig{
		Sim:      simCfg,
		Profiles: profiles,
		Market:   mkt,
		Sources:  sources,
		Primary:  s.base.Agents.Primary,
		Priority: s.base.Agents.Priority,
		Goal:     cfg.Goal,
		Parallel: s.base.Agents.Parallel,
		Timeout:  time.Duration(s.base.Agents.TimeoutSeconds) * time.Second,
		Progress: func(day int, phase string) {
			if phase == "price-tick" {
				_ = s.store.UpdateRunStatus(ctx, runID, RunStatusRunning,
					fmt.Sprintf("day %d/%d", day+1, cfg.Days))
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return coord.Run(ctx)
}

func (s *Simulator) buildFeed(ctx context.Context, cfg RunConfig) (pricefeed.Source, error) {
	switch cfg.FeedSource {
	case "", "random_walk":
		return pricefeed.NewRandomWalk(cfg.Seed, s.base.Feed.Drift, s.base.Feed.Volatility), nil
	case "binance":
		return pricefeed.NewBinanceReplay(ctx, cfg.Symbols, pricefeed.BinanceReplayConfig{
			BaseURL:      s.base.Feed.Binance.BaseURL,
			Interval:     s.base.Feed.Binance.Interval,
			LookbackDays: s.base.Feed.Binance.LookbackDays,
		})
	default:
		return nil, fmt.Errorf("未知价格来源: %s", cfg.FeedSource)
	}
}
