package pricefeed

import "sort"

// Replay 按日回放预载的收盘价序列。
// 所有标的共用一个日索引：Market 以固定的排序顺序逐标的询价，
// 当服务完排序最末的标的后索引前进一天。序列耗尽则停在最后一个值。
type Replay struct {
	name       string
	series     map[string][]float64
	lastSymbol string
	idx        int
	maxLen     int
}

func NewReplay(name string, series map[string][]float64) *Replay {
	symbols := make([]string, 0, len(series))
	maxLen := 1
	for s, seq := range series {
		symbols = append(symbols, s)
		if len(seq) > maxLen {
			maxLen = len(seq)
		}
	}
	sort.Strings(symbols)
	last := ""
	if len(symbols) > 0 {
		last = symbols[len(symbols)-1]
	}
	return &Replay{name: name, series: series, lastSymbol: last, maxLen: maxLen}
}

func (r *Replay) Name() string { return r.name }

func (r *Replay) NextPrice(symbol string, last float64, day int) float64 {
	seq := r.series[symbol]
	px := last
	if len(seq) > 0 {
		i := r.idx
		if i >= len(seq) {
			i = len(seq) - 1
		}
		px = seq[i]
	}
	if symbol == r.lastSymbol && r.idx < r.maxLen-1 {
		r.idx++
	}
	if px <= 0 {
		return last
	}
	return px
}
