package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"wasim/internal/sim"
)

const (
	colorBackground  = "#060c1b"
	colorTextPrimary = "#eceff4"
	colorTextMuted   = "#9ca3af"
	colorEquity      = "#34d399"
	colorCash        = "#3b82f6"

	chartWidthPx  = 1200
	chartHeightPx = 420
)

var symbolPalette = []string{"#22d3ee", "#fbbf24", "#f472b6", "#a78bfa", "#fb7185", "#4ade80"}

// Config 控制产出目录与是否另存 PNG。
type Config struct {
	Dir      string
	Snapshot bool
}

// Generator 把一次运行的每日历史渲染为权益/价格图表。
type Generator struct {
	cfg Config
}

func NewGenerator(cfg Config) *Generator {
	if cfg.Dir == "" {
		cfg.Dir = "reports"
	}
	return &Generator{cfg: cfg}
}

// Result 渲染产物的落盘位置。
type Result struct {
	HTMLPath string `json:"html_path"`
	PNGPath  string `json:"png_path,omitempty"`
}

// Generate 渲染 HTML 报告并按配置另存 PNG。
// 快照失败不算错误，HTML 始终是第一产物。
func (g *Generator) Generate(ctx context.Context, runID string, history []sim.HistoryRow, stats sim.RunStats) (Result, error) {
	if len(history) == 0 {
		return Result{}, fmt.Errorf("report: 运行 %s 没有历史数据", runID)
	}
	html, err := buildHTML(runID, history, stats)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(g.cfg.Dir, 0o755); err != nil {
		return Result{}, err
	}
	res := Result{HTMLPath: filepath.Join(g.cfg.Dir, fmt.Sprintf("run_%s.html", runID))}
	if err := os.WriteFile(res.HTMLPath, html, 0o644); err != nil {
		return Result{}, err
	}
	if g.cfg.Snapshot {
		pngPath := filepath.Join(g.cfg.Dir, fmt.Sprintf("run_%s.png", runID))
		if err := renderHTMLToPNG(ctx, html, pngPath); err == nil {
			res.PNGPath = pngPath
		}
	}
	return res, nil
}

func buildHTML(runID string, history []sim.HistoryRow, stats sim.RunStats) ([]byte, error) {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	xAxis := make([]string, len(history))
	for i, row := range history {
		xAxis[i] = fmt.Sprintf("D%d", row.Day)
	}

	page.AddCharts(
		buildEquityChart(runID, xAxis, history, stats),
		buildPriceChart(xAxis, history),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildEquityChart(runID string, xAxis []string, history []sim.HistoryRow, stats sim.RunStats) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("Equity %s", runID),
			Subtitle:      fmt.Sprintf("return %.2f%% | sharpe %.2f | maxDD %.2f%%", stats.ReturnPct, stats.Sharpe, stats.MaxDrawdownPct),
			Left:          "left",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 16},
			SubtitleStyle: &opts.TextStyle{Color: colorTextMuted},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextMuted},
		}),
	)
	equity := make([]opts.LineData, len(history))
	cash := make([]opts.LineData, len(history))
	for i, row := range history {
		equity[i] = opts.LineData{Value: round(row.Equity, 2)}
		cash[i] = opts.LineData{Value: round(row.Cash, 2)}
	}
	line.SetXAxis(xAxis)
	line.AddSeries("Equity", equity, charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}))
	line.AddSeries("Cash", cash, charts.WithLineStyleOpts(opts.LineStyle{Color: colorCash, Width: 1}))
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

func buildPriceChart(xAxis []string, history []sim.HistoryRow) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      "Prices",
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary, FontSize: 16},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextMuted},
		}),
	)
	symbols := make([]string, 0, len(history[0].Prices))
	for sym := range history[0].Prices {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	line.SetXAxis(xAxis)
	for i, sym := range symbols {
		data := make([]opts.LineData, len(history))
		for d, row := range history {
			if px, ok := row.Prices[sym]; ok {
				data[d] = opts.LineData{Value: round(px, 4)}
			} else {
				data[d] = opts.LineData{Value: nil}
			}
		}
		color := symbolPalette[i%len(symbolPalette)]
		line.AddSeries(sym, data, charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 2}))
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

func renderHTMLToPNG(ctx context.Context, html []byte, outPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(parent, 20*time.Second)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(chartWidthPx), int64(chartHeightPx*2+120)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500 * time.Millisecond),
		chromedp.FullScreenshot(&screenshot, 0),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return err
	}
	return os.WriteFile(outPath, screenshot, 0o644)
}

func round(val float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(val)
	}
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}
