package pricefeed

// Source 统一各类价格来源：合成与回放都实现同一契约。
// 实现必须返回严格为正的有限值；Market 侧仍会防御性钳制。
type Source interface {
	NextPrice(symbol string, last float64, day int) float64
	Name() string
}
