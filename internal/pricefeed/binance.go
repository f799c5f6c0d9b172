package pricefeed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"wasim/internal/logger"

	"github.com/adshao/go-binance/v2"
)

// BinanceReplayConfig 描述一次日线回放的拉取范围。
type BinanceReplayConfig struct {
	BaseURL      string
	Interval     string
	LookbackDays int
}

// NewBinanceReplay 通过 Binance 现货 K 线一次性预载各标的的日收盘价，
// 返回一个纯内存的 Replay 源。单个标的拉取失败只告警并回退为
// 持有上一价（Replay 对空序列的行为），不中断整体构造。
func NewBinanceReplay(ctx context.Context, symbols []string, cfg BinanceReplayConfig) (*Replay, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("binance replay: at least one symbol required")
	}
	interval := cfg.Interval
	if interval == "" {
		interval = "1d"
	}
	limit := cfg.LookbackDays
	if limit <= 0 || limit > 1000 {
		limit = 365
	}
	client := binance.NewClient("", "")
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	series := make(map[string][]float64, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		klines, err := client.NewKlinesService().
			Symbol(sym).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		if err != nil {
			logger.Warnf("binance replay: fetch %s failed: %v", sym, err)
			series[sym] = nil
			continue
		}
		closes := make([]float64, 0, len(klines))
		for _, k := range klines {
			px, err := strconv.ParseFloat(k.Close, 64)
			if err != nil || px <= 0 {
				continue
			}
			closes = append(closes, px)
		}
		if len(closes) == 0 {
			logger.Warnf("binance replay: %s returned no usable closes", sym)
		}
		series[sym] = closes
	}
	return NewReplay("binance", series), nil
}
