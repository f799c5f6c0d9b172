package sim

import (
	talib "github.com/markcheno/go-talib"

	"wasim/internal/config"
	"wasim/internal/decision"
)

// BuildObservation 由价格历史计算每个标的的特征束。
// 各窗口独立可配；历史不足时平滑降级：动量缺口期为 0，
// 波动率不足 2 个收益率时为 0，高低点回退到现价。
func BuildObservation(day int, hist map[string][]float64, profiles config.AgentProfiles) decision.Observation {
	obs := decision.Observation{Day: day, Symbols: make(map[string]decision.Features, len(hist))}
	for sym, prices := range hist {
		obs.Symbols[sym] = featuresFrom(prices, profiles)
	}
	return obs
}

func featuresFrom(prices []float64, profiles config.AgentProfiles) decision.Features {
	n := len(prices)
	if n == 0 {
		return decision.Features{}
	}
	p := prices[n-1]
	ft := decision.Features{Price: p, SMA: p, High: p, Low: p}

	if w := clampWindow(profiles.Fundamental.SMAWindow, n); w >= 2 {
		ft.SMA = talib.Sma(prices, w)[n-1]
	}

	if w := profiles.Macro.MomentumWindow; w >= 2 && n > w {
		// 动量为现价对窗口首价的收益率（窗口 3 即 2 日收益）。
		// ROC 以百分比返回，换算回小数。
		ft.Momentum = talib.Roc(prices, w-1)[n-1] / 100.0
	}

	if n > 1 {
		rets := make([]float64, 0, n-1)
		for i := 1; i < n; i++ {
			if prices[i-1] > 0 {
				rets = append(rets, prices[i]/prices[i-1]-1.0)
			}
		}
		if w := clampWindow(profiles.Sentiment.BreakoutWindow, len(rets)); w >= 2 {
			// 总体标准差，与特征定义一致。
			ft.Volatility = talib.StdDev(rets, w, 1.0)[len(rets)-1]
		}
	}

	if w := clampWindow(profiles.Sentiment.BreakoutWindow, n); w >= 2 {
		ft.High = talib.Max(prices, w)[n-1]
		ft.Low = talib.Min(prices, w)[n-1]
	}
	return ft
}

func clampWindow(w, n int) int {
	if w > n {
		return n
	}
	return w
}
