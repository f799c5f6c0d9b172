package pricefeed

import "math/rand"

// RandomWalk 几何随机游走价格源。
// 每个实例持有自己的 *rand.Rand：同 seed 必然复现同一序列，
// 并行的多次模拟互不干扰。
type RandomWalk struct {
	rng   *rand.Rand
	drift float64
	vol   float64
	floor float64
}

func NewRandomWalk(seed int64, drift, vol float64) *RandomWalk {
	if vol <= 0 {
		vol = 0.02
	}
	return &RandomWalk{
		rng:   rand.New(rand.NewSource(seed)),
		drift: drift,
		vol:   vol,
		floor: 1.0,
	}
}

func (r *RandomWalk) Name() string { return "random_walk" }

func (r *RandomWalk) NextPrice(symbol string, last float64, day int) float64 {
	shock := r.rng.NormFloat64()*r.vol + r.drift
	px := last * (1.0 + shock)
	if px < r.floor {
		return r.floor
	}
	return px
}
