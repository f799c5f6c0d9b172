package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"wasim/internal/sim"
)

type runModel struct {
	ID          int64          `gorm:"column:id;primaryKey"`
	RunID       string         `gorm:"column:run_id;uniqueIndex"`
	Status      string         `gorm:"column:status;index"`
	Message     string         `gorm:"column:message"`
	ConfigJSON  datatypes.JSON `gorm:"column:config_json"`
	StatsJSON   datatypes.JSON `gorm:"column:stats_json"`
	CreatedAt   int64          `gorm:"column:created_at;index"`
	UpdatedAt   int64          `gorm:"column:updated_at"`
	CompletedAt int64          `gorm:"column:completed_at"`
}

func (runModel) TableName() string { return "sim_runs" }

type historyModel struct {
	ID        int64          `gorm:"column:id;primaryKey"`
	RunID     string         `gorm:"column:run_id;index:idx_history_run_day,unique"`
	Day       int            `gorm:"column:day;index:idx_history_run_day,unique"`
	Prices    datatypes.JSON `gorm:"column:prices"`
	Cash      float64        `gorm:"column:cash"`
	Positions datatypes.JSON `gorm:"column:positions"`
	Equity    float64        `gorm:"column:equity"`
}

func (historyModel) TableName() string { return "sim_history" }

type tradeModel struct {
	ID        int64   `gorm:"column:id;primaryKey"`
	RunID     string  `gorm:"column:run_id;index"`
	Day       int     `gorm:"column:day"`
	Symbol    string  `gorm:"column:symbol;index"`
	Price     float64 `gorm:"column:price"`
	Qty       int64   `gorm:"column:qty"`
	BuyAgent  string  `gorm:"column:buy_agent"`
	SellAgent string  `gorm:"column:sell_agent"`
}

func (tradeModel) TableName() string { return "sim_trades" }

type transcriptModel struct {
	ID     int64          `gorm:"column:id;primaryKey"`
	RunID  string         `gorm:"column:run_id;index"`
	Day    int            `gorm:"column:day"`
	Stage  string         `gorm:"column:stage"`
	Detail datatypes.JSON `gorm:"column:detail"`
}

func (transcriptModel) TableName() string { return "sim_transcript" }

func newRunModel(run sim.Run) (runModel, error) {
	cfgJSON, err := json.Marshal(run.Config)
	if err != nil {
		return runModel{}, err
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return runModel{}, err
	}
	now := time.Now()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = now
	}
	return runModel{
		RunID:       run.ID,
		Status:      run.Status,
		Message:     run.Message,
		ConfigJSON:  datatypes.JSON(cfgJSON),
		StatsJSON:   datatypes.JSON(statsJSON),
		CreatedAt:   run.CreatedAt.UnixMilli(),
		UpdatedAt:   run.UpdatedAt.UnixMilli(),
		CompletedAt: millisOrZero(run.CompletedAt),
	}, nil
}

func runModelToRun(m runModel) (sim.Run, error) {
	run := sim.Run{
		ID:        m.RunID,
		Status:    m.Status,
		Message:   m.Message,
		CreatedAt: millisToTime(m.CreatedAt),
		UpdatedAt: millisToTime(m.UpdatedAt),
	}
	if m.CompletedAt > 0 {
		run.CompletedAt = millisToTime(m.CompletedAt)
	}
	if len(m.ConfigJSON) > 0 {
		if err := json.Unmarshal(m.ConfigJSON, &run.Config); err != nil {
			return sim.Run{}, err
		}
	}
	if len(m.StatsJSON) > 0 {
		if err := json.Unmarshal(m.StatsJSON, &run.Stats); err != nil {
			return sim.Run{}, err
		}
	}
	return run, nil
}

func newHistoryModel(runID string, row sim.HistoryRow) (historyModel, error) {
	prices, err := json.Marshal(row.Prices)
	if err != nil {
		return historyModel{}, err
	}
	positions, err := json.Marshal(row.Positions)
	if err != nil {
		return historyModel{}, err
	}
	return historyModel{
		RunID:     runID,
		Day:       row.Day,
		Prices:    datatypes.JSON(prices),
		Cash:      row.Cash,
		Positions: datatypes.JSON(positions),
		Equity:    row.Equity,
	}, nil
}

func historyModelToRow(m historyModel) (sim.HistoryRow, error) {
	row := sim.HistoryRow{
		Day:    m.Day,
		Cash:   m.Cash,
		Equity: m.Equity,
	}
	if len(m.Prices) > 0 {
		if err := json.Unmarshal(m.Prices, &row.Prices); err != nil {
			return sim.HistoryRow{}, err
		}
	}
	if len(m.Positions) > 0 {
		if err := json.Unmarshal(m.Positions, &row.Positions); err != nil {
			return sim.HistoryRow{}, err
		}
	}
	return row, nil
}

func millisOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(v)
}
