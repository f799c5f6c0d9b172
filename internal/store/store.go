package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"wasim/internal/sim"
)

// Store 用 Gorm + SQLite 持久化模拟运行与每日产物。
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: 数据库路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&runModel{}, &historyModel{}, &tradeModel{}, &transcriptModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：给并发 HTTP 读留一点余量，同时压低锁竞争。
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ sim.ResultStore = (*Store)(nil)

// ------------------------------- runs -------------------------------

func (s *Store) InsertRun(ctx context.Context, run sim.Run) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store 未初始化")
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id 必填")
	}
	model, err := newRunModel(run)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *Store) UpdateRunStatus(ctx context.Context, id, status, message string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store 未初始化")
	}
	res := s.db.WithContext(ctx).Model(&runModel{}).
		Where("run_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"message":    message,
			"updated_at": time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) FinishRun(ctx context.Context, run sim.Run) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store 未初始化")
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&runModel{}).
		Where("run_id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":       run.Status,
			"message":      run.Message,
			"stats_json":   datatypes.JSON(statsJSON),
			"updated_at":   time.Now().UnixMilli(),
			"completed_at": run.CompletedAt.UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (sim.Run, bool, error) {
	if s == nil || s.db == nil {
		return sim.Run{}, false, fmt.Errorf("store 未初始化")
	}
	var model runModel
	if err := s.db.WithContext(ctx).Where("run_id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sim.Run{}, false, nil
		}
		return sim.Run{}, false, err
	}
	run, err := runModelToRun(model)
	if err != nil {
		return sim.Run{}, false, err
	}
	return run, true, nil
}

func (s *Store) ListRuns(ctx context.Context) ([]sim.Run, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store 未初始化")
	}
	var models []runModel
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(200).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]sim.Run, 0, len(models))
	for _, m := range models {
		run, err := runModelToRun(m)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

// ------------------------------ outcome -----------------------------

// SaveOutcome 整体落库一次运行的产物，重复保存先清旧行（失败重试安全）。
func (s *Store) SaveOutcome(ctx context.Context, runID string, out *sim.Outcome) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store 未初始化")
	}
	if out == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&historyModel{}, &tradeModel{}, &transcriptModel{}} {
			if err := tx.Where("run_id = ?", runID).Delete(model).Error; err != nil {
				return err
			}
		}
		for _, row := range out.History {
			model, err := newHistoryModel(runID, row)
			if err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "run_id"}, {Name: "day"}},
				UpdateAll: true,
			}).Create(&model).Error; err != nil {
				return err
			}
		}
		for _, t := range out.Trades {
			model := tradeModel{
				RunID:     runID,
				Day:       t.Day,
				Symbol:    t.Symbol,
				Price:     t.Price,
				Qty:       t.Qty,
				BuyAgent:  t.BuyAgent,
				SellAgent: t.SellAgent,
			}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		}
		for _, e := range out.Transcript {
			model := transcriptModel{
				RunID:  runID,
				Day:    e.Day,
				Stage:  e.Stage,
				Detail: datatypes.JSON(e.Detail),
			}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) HistoryOf(ctx context.Context, runID string) ([]sim.HistoryRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store 未初始化")
	}
	var models []historyModel
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("day ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]sim.HistoryRow, 0, len(models))
	for _, m := range models {
		row, err := historyModelToRow(m)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) TradesOf(ctx context.Context, runID string) ([]sim.TradeRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store 未初始化")
	}
	var models []tradeModel
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("day ASC, id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]sim.TradeRow, 0, len(models))
	for _, m := range models {
		out = append(out, sim.TradeRow{
			Day:       m.Day,
			Symbol:    m.Symbol,
			Price:     m.Price,
			Qty:       m.Qty,
			BuyAgent:  m.BuyAgent,
			SellAgent: m.SellAgent,
		})
	}
	return out, nil
}

func (s *Store) TranscriptOf(ctx context.Context, runID string) ([]sim.TranscriptEntry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store 未初始化")
	}
	var models []transcriptModel
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("day ASC, id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]sim.TranscriptEntry, 0, len(models))
	for _, m := range models {
		out = append(out, sim.TranscriptEntry{
			Day:    m.Day,
			Stage:  m.Stage,
			Detail: json.RawMessage(m.Detail),
		})
	}
	return out, nil
}
