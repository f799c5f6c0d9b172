package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"wasim/internal/config"
	"wasim/internal/decision"
	"wasim/internal/ledger"
	"wasim/internal/logger"
	"wasim/internal/market"
	"wasim/internal/risk"
)

// ProgressFunc 每个阶段回调一次，用于对外汇报进度。
type ProgressFunc func(day int, phase string)

// CoordinatorConfig 构造一次模拟所需的全部协作方。
type CoordinatorConfig struct {
	Sim      config.SimConfig
	Profiles config.AgentProfiles
	Market   *market.Market
	Sources  []decision.Source
	Primary  string
	Priority []string
	Goal     string
	Parallel bool
	Timeout  time.Duration
	Progress ProgressFunc
}

// Coordinator 驱动每日状态机：
// PriceTick → Observe → Decide → Merge → RiskGate → Execute → Settle → Record。
// 除价格历史缓冲外不保留任何跨日状态。
type Coordinator struct {
	cfg       config.SimConfig
	profiles  config.AgentProfiles
	market    *market.Market
	sources   []decision.Source
	merger    decision.Merger
	gate      risk.Gate
	ldgr      *ledger.Ledger
	portfolio *ledger.Portfolio
	goal      string
	parallel  bool
	timeout   time.Duration
	progress  ProgressFunc

	hist map[string][]float64 // 仅追加，每标的一条
}

func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Market == nil {
		return nil, fmt.Errorf("coordinator requires a market")
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("coordinator requires at least one decision source")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	progress := cfg.Progress
	if progress == nil {
		progress = func(int, string) {}
	}
	symbols := cfg.Market.Symbols()
	hist := make(map[string][]float64, len(symbols))
	for _, s := range symbols {
		hist[s] = nil
	}
	priority := cfg.Priority
	if len(priority) == 0 {
		for _, src := range cfg.Sources {
			priority = append(priority, src.Role())
		}
	}
	return &Coordinator{
		cfg:      cfg.Sim,
		profiles: cfg.Profiles,
		market:   cfg.Market,
		sources:  cfg.Sources,
		merger: decision.Merger{
			Primary:    cfg.Primary,
			Priority:   priority,
			DefaultQty: cfg.Sim.DefaultOrderQty,
		},
		gate: risk.Gate{
			MaxPositionPerSymbol: cfg.Sim.MaxPositionPerSymbol,
			MaxGrossExposure:     cfg.Sim.MaxGrossExposure,
		},
		ldgr:      ledger.New(ExecutionAgentID, cfg.Sim.FeeBps),
		portfolio: ledger.NewPortfolio(cfg.Sim.StartCash, symbols),
		goal:      cfg.Goal,
		parallel:  cfg.Parallel,
		timeout:   timeout,
		progress:  progress,
		hist:      hist,
	}, nil
}

// Portfolio 返回当前账本（测试用）。
func (c *Coordinator) Portfolio() *ledger.Portfolio { return c.portfolio }

// Run 执行全部交易日。一日要么完整提交，要么整体失败并保留
// 上一个完整日的状态；返回的 Outcome 始终只含完整提交的日。
func (c *Coordinator) Run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{}
	totalFees := 0.0
	for day := 0; day < c.cfg.Days; day++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if err := c.runDay(ctx, day, out, &totalFees); err != nil {
			out.Stats = buildStats(c.cfg.StartCash, out.History, len(out.Trades), totalFees)
			return out, fmt.Errorf("day %d failed: %w", day, err)
		}
	}
	out.Stats = buildStats(c.cfg.StartCash, out.History, len(out.Trades), totalFees)
	out.Stats.FinishedAt = time.Now()
	return out, nil
}

func (c *Coordinator) runDay(ctx context.Context, day int, out *Outcome, totalFees *float64) error {
	c.progress(day, "price-tick")
	c.market.AdvancePrices()
	snapshot := c.market.Prices()
	for sym, px := range snapshot {
		c.hist[sym] = append(c.hist[sym], px)
	}

	c.progress(day, "observe")
	obs := BuildObservation(day, c.hist, c.profiles)

	c.progress(day, "decide")
	results := c.decide(ctx, obs)
	votes := make([]decision.Action, 0)
	for _, res := range results {
		for _, a := range res.Actions {
			if _, known := obs.Symbols[a.Symbol]; !known {
				// 契约外的标的直接丢弃。
				continue
			}
			votes = append(votes, a)
		}
	}
	c.transcribe(out, day, "sources", results)

	c.progress(day, "merge")
	merged := c.merger.Merge(votes, obs)
	c.transcribe(out, day, "merge", merged)

	c.progress(day, "risk")
	gated := c.gate.Enforce(merged, c.portfolio, snapshot)
	c.transcribe(out, day, "risk", gated)

	c.progress(day, "execute")
	orders := buildOrders(gated)
	for _, o := range orders {
		if err := c.market.Execute(o); err != nil {
			return err
		}
	}
	c.transcribe(out, day, "orders", orders)

	c.progress(day, "settle")
	trades := c.market.SettleDay()
	*totalFees += c.ldgr.Apply(c.portfolio, trades)
	equity := c.portfolio.Equity(snapshot)

	c.progress(day, "record")
	positions := make(map[string]int64, len(c.portfolio.Positions))
	for sym, qty := range c.portfolio.Positions {
		positions[sym] = qty
	}
	out.History = append(out.History, HistoryRow{
		Day:       day,
		Prices:    snapshot,
		Cash:      c.portfolio.Cash,
		Positions: positions,
		Equity:    equity,
	})
	for _, t := range trades {
		out.Trades = append(out.Trades, TradeRow{
			Day:       day,
			Symbol:    t.Symbol,
			Price:     t.Price,
			Qty:       t.Qty,
			BuyAgent:  t.BuyAgent,
			SellAgent: t.SellAgent,
		})
	}
	return nil
}

// decide 逐源收集提案。单个源失败绝不中断当日：
// 超时、报错或 panic 都按空提案处理，只记一条告警。
func (c *Coordinator) decide(ctx context.Context, obs decision.Observation) []decision.Result {
	results := make([]decision.Result, len(c.sources))
	if c.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, src := range c.sources {
			i, src := i, src
			g.Go(func() error {
				results[i] = c.callSource(gctx, src, obs)
				return nil
			})
		}
		_ = g.Wait()
		return results
	}
	for i, src := range c.sources {
		results[i] = c.callSource(ctx, src, obs)
	}
	return results
}

func (c *Coordinator) callSource(ctx context.Context, src decision.Source, obs decision.Observation) (res decision.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("decision source %s panicked: %v", src.Role(), r)
			res = decision.Result{Role: src.Role()}
		}
	}()
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := src.Decide(callCtx, obs, c.goal)
	if err != nil {
		logger.Warnf("decision source %s failed: %v", src.Role(), err)
		return decision.Result{Role: src.Role()}
	}
	return out
}

// buildOrders 把风控后的动作转为委托；零数量与持有永不触发下单。
func buildOrders(gated []decision.Action) []*market.Order {
	orders := make([]*market.Order, 0, len(gated))
	for _, a := range gated {
		if a.Kind != decision.KindBuy && a.Kind != decision.KindSell {
			continue
		}
		if a.Qty <= 0 {
			continue
		}
		orders = append(orders, &market.Order{
			Side:    a.Kind,
			Symbol:  a.Symbol,
			Qty:     a.Qty,
			Limit:   a.Limit,
			AgentID: ExecutionAgentID,
		})
	}
	return orders
}

func (c *Coordinator) transcribe(out *Outcome, day int, stage string, payload any) {
	detail, err := json.Marshal(payload)
	if err != nil {
		logger.Warnf("transcript marshal failed (day %d, %s): %v", day, stage, err)
		return
	}
	out.Transcript = append(out.Transcript, TranscriptEntry{Day: day, Stage: stage, Detail: detail})
}
