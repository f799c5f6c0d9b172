package sim

import (
	"encoding/json"
	"time"
)

// 执行主体在成交中的标识。
const ExecutionAgentID = "exec"

const (
	RunStatusPending = "pending"
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// RunConfig 记录本次模拟的参数快照，便于重放。
type RunConfig struct {
	Days                 int      `json:"days"`
	Symbols              []string `json:"symbols"`
	Seed                 int64    `json:"seed"`
	StartPrice           float64  `json:"start_price"`
	StartCash            float64  `json:"start_cash"`
	MaxPositionPerSymbol int64    `json:"max_position_per_symbol"`
	MaxGrossExposure     float64  `json:"max_gross_exposure"`
	FeeBps               float64  `json:"fee_bps"`
	SlippageBps          float64  `json:"slippage_bps"`
	DefaultOrderQty      int64    `json:"default_order_qty"`
	FeedSource           string   `json:"feed_source"`
	Goal                 string   `json:"goal,omitempty"`
}

// RunStats 汇总收益与风险指标。
type RunStats struct {
	FinalEquity    float64   `json:"final_equity"`
	Profit         float64   `json:"profit"`
	ReturnPct      float64   `json:"return_pct"`
	CAGR           float64   `json:"cagr"`
	Sharpe         float64   `json:"sharpe"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	Trades         int       `json:"trades"`
	Fees           float64   `json:"fees"`
	Days           int       `json:"days"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Run 表示一次模拟任务。
type Run struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Config      RunConfig `json:"config"`
	Stats       RunStats  `json:"stats"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// HistoryRow 每日一行：日序号、各标的价格、现金、各标的持仓、权益。
type HistoryRow struct {
	Day       int                `json:"day"`
	Prices    map[string]float64 `json:"prices"`
	Cash      float64            `json:"cash"`
	Positions map[string]int64   `json:"positions"`
	Equity    float64            `json:"equity"`
}

// TradeRow 每笔成交一行。
type TradeRow struct {
	Day       int     `json:"day"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Qty       int64   `json:"qty"`
	BuyAgent  string  `json:"buy_agent"`
	SellAgent string  `json:"sell_agent"`
}

// TranscriptEntry 记录某日某阶段的完整中间产物，便于回看决策链。
type TranscriptEntry struct {
	Day    int             `json:"day"`
	Stage  string          `json:"stage"` // sources / merge / risk / orders
	Detail json.RawMessage `json:"detail"`
}

// Outcome 一次完整模拟的全部产物。
type Outcome struct {
	History    []HistoryRow
	Trades     []TradeRow
	Transcript []TranscriptEntry
	Stats      RunStats
}
