package sim

import (
	"math"

	"github.com/shopspring/decimal"
)

// 年化按交易日近似。
const periodsPerYear = 252

// EquityMetrics 基于权益序列计算收益与风险指标。
// 序列过短时对应指标为 0。
func EquityMetrics(equity []float64) (periodReturn, cagr, sharpe, maxDrawdown float64) {
	n := len(equity)
	if n < 2 || equity[0] <= 0 {
		return 0, 0, 0, 0
	}
	periodReturn = equity[n-1]/equity[0] - 1.0

	years := float64(n) / periodsPerYear
	if years > 0 && equity[n-1] > 0 {
		cagr = math.Pow(equity[n-1]/equity[0], 1.0/years) - 1.0
	}

	rets := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		if equity[i-1] > 0 {
			rets = append(rets, equity[i]/equity[i-1]-1.0)
		}
	}
	if len(rets) >= 2 {
		mu := mean(rets)
		sd := sampleStddev(rets, mu)
		if sd > 0 {
			sharpe = mu / sd * math.Sqrt(periodsPerYear)
		}
	}

	peak := equity[0]
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := v/peak - 1.0
			if dd < maxDrawdown {
				maxDrawdown = dd
			}
		}
	}
	return periodReturn, cagr, sharpe, maxDrawdown
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStddev(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// buildStats 汇总一次模拟的统计，展示字段用 decimal 做精确舍入。
func buildStats(startCash float64, history []HistoryRow, trades int, fees float64) RunStats {
	equity := make([]float64, 0, len(history))
	for _, row := range history {
		equity = append(equity, row.Equity)
	}
	final := startCash
	if len(equity) > 0 {
		final = equity[len(equity)-1]
	}
	periodReturn, cagr, sharpe, maxDD := EquityMetrics(equity)

	profit := decimal.NewFromFloat(final).Sub(decimal.NewFromFloat(startCash))
	returnPct := decimal.NewFromFloat(periodReturn).Mul(decimal.NewFromInt(100)).Round(4)
	drawdownPct := decimal.NewFromFloat(maxDD).Mul(decimal.NewFromInt(100)).Round(4)

	return RunStats{
		FinalEquity:    final,
		Profit:         profit.Round(2).InexactFloat64(),
		ReturnPct:      returnPct.InexactFloat64(),
		CAGR:           cagr,
		Sharpe:         sharpe,
		MaxDrawdownPct: drawdownPct.InexactFloat64(),
		Trades:         trades,
		Fees:           fees,
		Days:           len(history),
	}
}
